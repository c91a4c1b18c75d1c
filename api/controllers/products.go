package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/delarosa-dev/shopdeck-backend/api/responses"
	"github.com/delarosa-dev/shopdeck-backend/api/validators"
	"github.com/delarosa-dev/shopdeck-backend/internal/media"
	productsvc "github.com/delarosa-dev/shopdeck-backend/internal/products"
	"github.com/delarosa-dev/shopdeck-backend/pkg/config"
	pkgerrors "github.com/delarosa-dev/shopdeck-backend/pkg/errors"
	"github.com/delarosa-dev/shopdeck-backend/pkg/logger"
	"github.com/delarosa-dev/shopdeck-backend/pkg/pagination"
)

const uploadFieldName = "files"

// CreateProduct handles product creation. The endpoint accepts either a JSON
// body or a multipart form carrying file parts plus a "payload" JSON value.
func CreateProduct(svc productsvc.Service, mediaCfg config.MediaConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		ownerID, err := ownerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createProductRequest
		var uploads []media.UploadInput
		if isMultipart(r) {
			files, err := validators.ParseUploadFiles(r, uploadFieldName, mediaCfg.MaxPerProduct, mediaCfg.MaxUploadBytes)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			uploads = uploadInputs(files)
			if err := decodeMultipartPayload(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		} else if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toCreateInput(uploads)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), ownerID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// UpdateProduct applies a bulk update to scalar fields, attachments, and the
// thumbnail in one request.
func UpdateProduct(svc productsvc.Service, mediaCfg config.MediaConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		ownerID, err := ownerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		var uploads []media.UploadInput
		if isMultipart(r) {
			files, err := validators.ParseUploadFiles(r, uploadFieldName, mediaCfg.MaxPerProduct, mediaCfg.MaxUploadBytes)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			uploads = uploadInputs(files)
			if err := decodeMultipartPayload(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		} else if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toUpdateInput(uploads)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), ownerID, productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// DeleteProduct removes a product; a missing product reports deleted=false.
func DeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		ownerID, err := ownerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deleted, err := svc.Delete(r.Context(), ownerID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"deleted": deleted})
	}
}

// GetProduct loads one product with its ordered media.
func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetByID(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// ListProducts returns products newest first.
func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// SearchProducts filters products through the configured matching strategy.
func SearchProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query := strings.TrimSpace(r.URL.Query().Get("q"))

		products, err := svc.Search(r.Context(), query, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, products)
	}
}

// AddProductMedia appends uploaded files to a product.
func AddProductMedia(svc productsvc.Service, mediaCfg config.MediaConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		ownerID, err := ownerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		files, err := validators.ParseUploadFiles(r, uploadFieldName, mediaCfg.MaxPerProduct, mediaCfg.MaxUploadBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.AddMedia(r.Context(), ownerID, productID, uploadInputs(files))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// RemoveProductMedia detaches one asset and deletes it. The id resolves as a
// relation id first, then as a media id.
func RemoveProductMedia(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		ownerID, err := ownerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		mediaID, err := pathUUID(r, "mediaId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.RemoveMedia(r.Context(), ownerID, productID, mediaID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// UpdateProductMedia changes the title or order of one attached asset.
func UpdateProductMedia(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		ownerID, err := ownerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		mediaID, err := pathUUID(r, "mediaId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateProductMediaRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateMediaRelation(r.Context(), ownerID, productID, mediaID, productsvc.UpdateMediaInput{
			Title: body.Title,
			Order: body.Order,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

type createProductRequest struct {
	Title       string             `json:"title" validate:"required"`
	Description string             `json:"description,omitempty"`
	Price       decimal.Decimal    `json:"price"`
	Stock       int                `json:"stock,omitempty" validate:"omitempty,min=0"`
	Categories  []string           `json:"categories,omitempty"`
	IsActive    *bool              `json:"is_active,omitempty"`
	Media       []mediaPairRequest `json:"media,omitempty"`
	ThumbnailID *string            `json:"thumbnail_id,omitempty"`
}

type mediaPairRequest struct {
	MediaID string `json:"media_id" validate:"required,uuid"`
	Order   int    `json:"order" validate:"min=0"`
}

type updateProductRequest struct {
	Title       *string            `json:"title,omitempty"`
	Description *string            `json:"description,omitempty"`
	Price       *decimal.Decimal   `json:"price,omitempty"`
	Stock       *int               `json:"stock,omitempty" validate:"omitempty,min=0"`
	Categories  *[]string          `json:"categories,omitempty"`
	IsActive    *bool              `json:"is_active,omitempty"`
	MediaEdits  []mediaEditRequest `json:"media_edits,omitempty"`
	ThumbnailID *string            `json:"thumbnail_id,omitempty"`
}

type mediaEditRequest struct {
	MediaID string  `json:"media_id" validate:"required,uuid"`
	Order   *int    `json:"order,omitempty"`
	Title   *string `json:"title,omitempty"`
}

type updateProductMediaRequest struct {
	Title *string `json:"title,omitempty"`
	Order *int    `json:"order,omitempty"`
}

func (req createProductRequest) toCreateInput(uploads []media.UploadInput) (productsvc.CreateInput, error) {
	pairs := make([]productsvc.MediaPairInput, 0, len(req.Media))
	for _, pair := range req.Media {
		id, err := uuid.Parse(pair.MediaID)
		if err != nil {
			return productsvc.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid media id")
		}
		pairs = append(pairs, productsvc.MediaPairInput{MediaID: id, Order: pair.Order})
	}

	thumbnail, err := parseOptionalUUID(req.ThumbnailID)
	if err != nil {
		return productsvc.CreateInput{}, err
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	return productsvc.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Categories:  req.Categories,
		IsActive:    isActive,
		Uploads:     uploads,
		MediaPairs:  pairs,
		ThumbnailID: thumbnail,
	}, nil
}

func (req updateProductRequest) toUpdateInput(uploads []media.UploadInput) (productsvc.UpdateInput, error) {
	edits := make([]productsvc.MediaEditInput, 0, len(req.MediaEdits))
	for _, edit := range req.MediaEdits {
		id, err := uuid.Parse(edit.MediaID)
		if err != nil {
			return productsvc.UpdateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid media id")
		}
		edits = append(edits, productsvc.MediaEditInput{MediaID: id, Order: edit.Order, Title: edit.Title})
	}

	thumbnail, err := parseOptionalUUID(req.ThumbnailID)
	if err != nil {
		return productsvc.UpdateInput{}, err
	}

	return productsvc.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Categories:  req.Categories,
		IsActive:    req.IsActive,
		Uploads:     uploads,
		MediaEdits:  edits,
		ThumbnailID: thumbnail,
	}, nil
}

func parseOptionalUUID(raw *string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid id")
	}
	return &id, nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data")
}

func uploadInputs(files []validators.UploadFile) []media.UploadInput {
	out := make([]media.UploadInput, 0, len(files))
	for _, file := range files {
		out = append(out, media.UploadInput{
			FileName:     file.FileName,
			DeclaredMime: file.DeclaredMime,
			SizeBytes:    file.SizeBytes,
			Data:         file.Data,
		})
	}
	return out
}

// decodeMultipartPayload unmarshals the optional "payload" form value and
// runs struct validation on the result.
func decodeMultipartPayload(r *http.Request, dest any) error {
	raw := validators.FormValue(r, "payload")
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payload json")
	}
	return validators.ValidateStruct(dest)
}
