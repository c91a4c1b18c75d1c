package controllers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/delarosa-dev/shopdeck-backend/api/responses"
	"github.com/delarosa-dev/shopdeck-backend/api/validators"
	mediasvc "github.com/delarosa-dev/shopdeck-backend/internal/media"
	"github.com/delarosa-dev/shopdeck-backend/pkg/config"
	pkgerrors "github.com/delarosa-dev/shopdeck-backend/pkg/errors"
	"github.com/delarosa-dev/shopdeck-backend/pkg/logger"
)

// MediaUpload stores the uploaded files as standalone assets.
func MediaUpload(svc mediasvc.Service, mediaCfg config.MediaConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}

		ownerID, err := ownerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		files, err := validators.ParseUploadFiles(r, uploadFieldName, mediaCfg.MaxPerProduct, mediaCfg.MaxUploadBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if len(files) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "no files provided"))
			return
		}

		assets := make([]mediasvc.AssetDTO, 0, len(files))
		for _, file := range files {
			asset, err := svc.Upload(r.Context(), ownerID, mediasvc.UploadInput{
				FileName:     file.FileName,
				DeclaredMime: file.DeclaredMime,
				SizeBytes:    file.SizeBytes,
				Data:         file.Data,
			})
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			assets = append(assets, *asset)
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, assets)
	}
}

// MediaList returns stored assets newest first.
func MediaList(svc mediasvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assets, err := svc.List(r.Context(), mediasvc.ListFilter{
			MimeType: strings.TrimSpace(r.URL.Query().Get("mime_type")),
			Query:    strings.TrimSpace(r.URL.Query().Get("q")),
			Limit:    limit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, assets)
	}
}

// MediaGet loads one asset's metadata.
func MediaGet(svc mediasvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}

		mediaID, err := pathUUID(r, "mediaId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		asset, err := svc.GetByID(r.Context(), mediaID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, asset)
	}
}

// MediaServe streams the stored blob with its recorded content type.
func MediaServe(svc mediasvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}

		mediaID, err := pathUUID(r, "mediaId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reader, asset, err := svc.Open(r.Context(), mediaID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer reader.Close()

		w.Header().Set("Content-Type", asset.MimeType)
		w.Header().Set("Content-Length", strconv.FormatInt(asset.SizeBytes, 10))
		if _, err := io.Copy(w, reader); err != nil && logg != nil {
			logg.Warn(logg.WithField(r.Context(), "media_id", mediaID.String()), "streaming media blob interrupted")
		}
	}
}

// MediaUpdateTitle changes an asset's display title.
func MediaUpdateTitle(svc mediasvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}

		mediaID, err := pathUUID(r, "mediaId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body struct {
			Title string `json:"title" validate:"required"`
		}
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		asset, err := svc.UpdateTitle(r.Context(), mediaID, body.Title)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, asset)
	}
}

// MediaDelete removes the asset row and its blob.
func MediaDelete(svc mediasvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}

		mediaID, err := pathUUID(r, "mediaId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), mediaID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}
