package handlers

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"adwork/internal/domain"
	"adwork/internal/entitlement"
	"adwork/internal/mediasink"
	"adwork/internal/middleware"
)

const maxHistoryPageSize = 50

type generateAdRequest struct {
	ProductDescription string `json:"productDescription"`
	Prompt             string `json:"prompt"` // alias for productDescription
	BrandName          string `json:"brandName"`
	Duration           int    `json:"duration"`
	Style              string `json:"style"`
	AspectRatio        string `json:"aspectRatio"`
	Deliverable        string `json:"deliverable"`
	ProductPhoto       string `json:"productPhoto"` // base64
	ModelPhoto         string `json:"modelPhoto"`   // base64
}

// GenerateAd runs the whole pipeline synchronously and answers with the
// terminal record. One credit is deducted after, and only after, a successful
// run.
func (a *App) GenerateAd(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	user, err := a.Users.GetByID(r.Context(), userID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	if err := a.Gate.Require(r.Context(), userID, entitlement.GenerationCost); err != nil {
		a.domainError(w, err)
		return
	}

	req, err := a.parseGenerateRequest(r, user)
	if err != nil {
		a.domainError(w, err)
		return
	}
	req.Locale = middleware.LocaleFromContext(r.Context())

	gen, err := a.Pipeline.Generate(r.Context(), userID, *req)
	if err != nil {
		if gen != nil {
			// The record is finalized as failed; the error picks the status.
			a.Log.Warn().Err(err).Str("generation_id", gen.ID).Msg("generate-ad failed")
		}
		a.domainError(w, err)
		return
	}

	remaining, err := a.Gate.Deduct(r.Context(), userID, entitlement.GenerationCost)
	if err != nil {
		// The deliverable exists; losing the deduction is logged, not fatal.
		a.Log.Error().Err(err).Str("user_id", userID).Msg("credit deduction failed after success")
		remaining = user.Credits
	}

	a.json(w, http.StatusOK, map[string]any{
		"success":          true,
		"generationId":     gen.ID,
		"videoUrl":         strPtrValue(gen.VideoURL),
		"thumbnailUrl":     strPtrValue(gen.ThumbnailURL),
		"remainingCredits": remaining,
	})
}

func (a *App) parseGenerateRequest(r *http.Request, user *domain.User) (*domain.GenerationRequest, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		return a.parseGenerateMultipart(r, user)
	}

	var body generateAdRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, domain.ErrInvalidRequest
	}
	if body.ProductDescription == "" {
		body.ProductDescription = body.Prompt
	}
	req := &domain.GenerationRequest{
		ProductDescription: body.ProductDescription,
		BrandName:          body.BrandName,
		Duration:           body.Duration,
		Style:              domain.AdStyle(body.Style),
		AspectRatio:        body.AspectRatio,
		Deliverable:        domain.Deliverable(body.Deliverable),
	}
	var err error
	if req.ProductPhoto, err = decodePhoto(body.ProductPhoto, user, a.Cfg.MaxUploadBytes); err != nil {
		return nil, err
	}
	if req.ModelPhoto, err = decodePhoto(body.ModelPhoto, user, a.Cfg.MaxUploadBytes); err != nil {
		return nil, err
	}
	return req, nil
}

func (a *App) parseGenerateMultipart(r *http.Request, user *domain.User) (*domain.GenerationRequest, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, domain.ErrInvalidRequest
	}
	desc := r.FormValue("productDescription")
	if desc == "" {
		desc = r.FormValue("prompt")
	}
	duration, _ := strconv.Atoi(r.FormValue("duration"))
	req := &domain.GenerationRequest{
		ProductDescription: desc,
		BrandName:          r.FormValue("brandName"),
		Duration:           duration,
		Style:              domain.AdStyle(r.FormValue("style")),
		AspectRatio:        r.FormValue("aspectRatio"),
		Deliverable:        domain.Deliverable(r.FormValue("deliverable")),
	}
	var err error
	if req.ProductPhoto, err = a.readFormFile(r, "productPhoto", user); err != nil {
		return nil, err
	}
	if req.ModelPhoto, err = a.readFormFile(r, "modelPhoto", user); err != nil {
		return nil, err
	}
	return req, nil
}

func (a *App) readFormFile(r *http.Request, field string, user *domain.User) ([]byte, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil
		}
		return nil, domain.ErrInvalidRequest
	}
	defer file.Close()
	if !user.CanUpload(header.Size, a.Cfg.MaxUploadBytes) {
		return nil, domain.ErrPayloadTooLarge
	}
	return readAll(file)
}

func readAll(file multipart.File) ([]byte, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, domain.ErrInvalidRequest
	}
	return data, nil
}

func decodePhoto(encoded string, user *domain.User, limit int64) ([]byte, error) {
	if encoded == "" {
		return nil, nil
	}
	// Tolerate data-URL prefixes from browser canvases.
	if idx := strings.Index(encoded, ","); idx >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, domain.ErrInvalidRequest
	}
	if !user.CanUpload(int64(len(data)), limit) {
		return nil, domain.ErrPayloadTooLarge
	}
	return data, nil
}

// GenerationStatus reports the record's current state. A failed generation
// answers 200 with a success:false payload so pollers can read the reason.
func (a *App) GenerationStatus(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	gen, err := a.loadOwnedGeneration(r, userID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, generationPayload(gen))
}

// GenerationDelete removes the record and best-effort deletes the remote
// media asset.
func (a *App) GenerationDelete(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	gen, err := a.loadOwnedGeneration(r, userID)
	if err != nil {
		a.domainError(w, err)
		return
	}

	if gen.MediaAssetID != nil && *gen.MediaAssetID != "" {
		kind := mediasink.KindImage
		if gen.VideoURL != nil && strings.HasSuffix(*gen.VideoURL, ".mp4") {
			kind = mediasink.KindVideo
		}
		if err := a.Sink.Delete(r.Context(), *gen.MediaAssetID, kind); err != nil {
			a.Log.Warn().Err(err).Str("generation_id", gen.ID).Msg("remote asset delete failed")
		}
	}

	if _, err := a.Generations.Delete(r.Context(), gen.ID); err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"success": true})
}

// GenerationHistory pages through the caller's generations, newest first.
func (a *App) GenerationHistory(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > maxHistoryPageSize {
		pageSize = maxHistoryPageSize
	}

	items, total, err := a.Generations.FindByUser(r.Context(), userID, page, pageSize)
	if err != nil {
		a.domainError(w, err)
		return
	}
	payload := make([]map[string]any, 0, len(items))
	for i := range items {
		payload = append(payload, generationPayload(&items[i]))
	}
	a.json(w, http.StatusOK, map[string]any{
		"items":    payload,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

func (a *App) loadOwnedGeneration(r *http.Request, userID string) (*domain.Generation, error) {
	id := chi.URLParam(r, "id")
	if id == "" {
		return nil, domain.ErrInvalidRequest
	}
	gen, err := a.Generations.FindByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if gen.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return gen, nil
}

func generationPayload(gen *domain.Generation) map[string]any {
	payload := map[string]any{
		"generationId": gen.ID,
		"status":       gen.Status,
		"progress":     gen.Progress,
		"videoUrl":     strPtrValue(gen.VideoURL),
		"thumbnailUrl": strPtrValue(gen.ThumbnailURL),
		"createdAt":    gen.CreatedAt,
		"updatedAt":    gen.UpdatedAt,
	}
	if gen.Status == domain.GenerationFailed {
		payload["success"] = false
		payload["error"] = strPtrValue(gen.ErrorMessage)
	}
	return payload
}

func strPtrValue(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
