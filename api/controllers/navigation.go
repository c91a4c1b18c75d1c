package controllers

import (
	"net/http"

	"github.com/delarosa-dev/shopdeck-backend/api/responses"
	"github.com/delarosa-dev/shopdeck-backend/api/validators"
	navsvc "github.com/delarosa-dev/shopdeck-backend/internal/navigation"
	pkgerrors "github.com/delarosa-dev/shopdeck-backend/pkg/errors"
	"github.com/delarosa-dev/shopdeck-backend/pkg/logger"
)

// NavigationTree returns the full navigation tree.
func NavigationTree(svc navsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "navigation service unavailable"))
			return
		}

		tree, err := svc.Tree(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, tree)
	}
}

// NavigationCreate appends a new entry to the tree.
func NavigationCreate(svc navsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "navigation service unavailable"))
			return
		}

		ownerID, err := ownerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createNavItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pageID, err := parseOptionalUUID(body.PageID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		parentID, err := parseOptionalUUID(body.ParentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		node, err := svc.Create(r.Context(), ownerID, navsvc.CreateInput{
			Label:    body.Label,
			URL:      body.URL,
			PageID:   pageID,
			ParentID: parentID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, node)
	}
}

// NavigationUpdate merges scalar fields into an entry.
func NavigationUpdate(svc navsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "navigation service unavailable"))
			return
		}

		ownerID, err := ownerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := pathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateNavItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pageID, err := parseOptionalUUID(body.PageID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		node, err := svc.Update(r.Context(), ownerID, itemID, navsvc.UpdateInput{
			Label:  body.Label,
			URL:    body.URL,
			PageID: pageID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, node)
	}
}

// NavigationMove reorders an entry within its sibling list.
func NavigationMove(svc navsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "navigation service unavailable"))
			return
		}

		ownerID, err := ownerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := pathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body struct {
			Position int `json:"position"`
		}
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		siblings, err := svc.Move(r.Context(), ownerID, itemID, body.Position)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, siblings)
	}
}

// NavigationDelete removes an entry and its descendants.
func NavigationDelete(svc navsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "navigation service unavailable"))
			return
		}

		ownerID, err := ownerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := pathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deleted, err := svc.Delete(r.Context(), ownerID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"deleted": deleted})
	}
}

type createNavItemRequest struct {
	Label    string  `json:"label" validate:"required"`
	URL      string  `json:"url,omitempty"`
	PageID   *string `json:"page_id,omitempty"`
	ParentID *string `json:"parent_id,omitempty"`
}

type updateNavItemRequest struct {
	Label  *string `json:"label,omitempty"`
	URL    *string `json:"url,omitempty"`
	PageID *string `json:"page_id,omitempty"`
}
