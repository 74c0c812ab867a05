package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"adwork/internal/domain"
	"adwork/internal/mediasink"
)

const communityFolder = "adwork/community"

// CommunityList serves the public feed, newest first. When the caller is
// authenticated the payload marks which posts they already liked.
func (a *App) CommunityList(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > maxHistoryPageSize {
		pageSize = maxHistoryPageSize
	}

	posts, total, err := a.Posts.List(r.Context(), page, pageSize)
	if err != nil {
		a.domainError(w, err)
		return
	}
	viewerID := a.currentUserID(r)
	payload := make([]map[string]any, 0, len(posts))
	for i := range posts {
		payload = append(payload, postPayload(&posts[i], viewerID))
	}
	a.json(w, http.StatusOK, map[string]any{
		"items":    payload,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

// CommunityCreate accepts a multipart upload and publishes it to the feed.
func (a *App) CommunityCreate(w http.ResponseWriter, r *http.Request) {
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
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	data, err := a.readFormFile(r, "media", user)
	if err != nil {
		a.domainError(w, err)
		return
	}
	if len(data) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "media file required")
		return
	}

	mediaType := domain.PostMediaImage
	if strings.EqualFold(r.FormValue("mediaType"), string(domain.PostMediaVideo)) {
		mediaType = domain.PostMediaVideo
	}
	a.publishPost(w, r, user, data, mediaType,
		r.FormValue("title"), r.FormValue("description"), r.FormValue("link"))
}

type sharePostRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	MediaData   string `json:"mediaData"` // base64
	MediaType   string `json:"mediaType"`
	Link        string `json:"link"`
}

// CommunityShare publishes a just-generated ad from its base64 payload.
func (a *App) CommunityShare(w http.ResponseWriter, r *http.Request) {
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
	var req sharePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	encoded := req.MediaData
	if idx := strings.Index(encoded, ","); idx >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(data) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "mediaData must be base64 media")
		return
	}
	if !user.CanUpload(int64(len(data)), a.Cfg.MaxUploadBytes) {
		a.domainError(w, domain.ErrPayloadTooLarge)
		return
	}

	mediaType := domain.PostMediaImage
	if strings.EqualFold(req.MediaType, string(domain.PostMediaVideo)) {
		mediaType = domain.PostMediaVideo
	}
	a.publishPost(w, r, user, data, mediaType, req.Title, req.Description, req.Link)
}

func (a *App) publishPost(w http.ResponseWriter, r *http.Request, user *domain.User, data []byte, mediaType domain.PostMediaType, title, description, link string) {
	kind := mediasink.KindImage
	if mediaType == domain.PostMediaVideo {
		kind = mediasink.KindVideo
	}
	asset, err := a.Sink.Upload(r.Context(), data, kind, communityFolder)
	if err != nil {
		a.Log.Error().Err(err).Msg("community media upload failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to store media")
		return
	}

	post := &domain.Post{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		AuthorName:   user.Name,
		AuthorAvatar: user.AvatarURL,
		Title:        strings.TrimSpace(title),
		Description:  strings.TrimSpace(description),
		MediaURL:     asset.URL,
		MediaAssetID: asset.AssetID,
		MediaType:    mediaType,
		Link:         strings.TrimSpace(link),
		Likes:        []string{},
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.Posts.Create(r.Context(), post); err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusCreated, postPayload(post, user.ID))
}

// CommunityMine lists the caller's own posts.
func (a *App) CommunityMine(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	posts, err := a.Posts.ListByUser(r.Context(), userID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	payload := make([]map[string]any, 0, len(posts))
	for i := range posts {
		payload = append(payload, postPayload(&posts[i], userID))
	}
	a.json(w, http.StatusOK, map[string]any{"items": payload})
}

// CommunityDelete removes the caller's post and best-effort deletes its media.
func (a *App) CommunityDelete(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	post, err := a.Posts.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.domainError(w, err)
		return
	}
	if post.UserID != userID {
		a.domainError(w, domain.ErrForbidden)
		return
	}

	if post.MediaAssetID != "" {
		kind := mediasink.KindImage
		if post.MediaType == domain.PostMediaVideo {
			kind = mediasink.KindVideo
		}
		if err := a.Sink.Delete(r.Context(), post.MediaAssetID, kind); err != nil {
			a.Log.Warn().Err(err).Str("post_id", post.ID).Msg("post media delete failed")
		}
	}

	if _, err := a.Posts.Delete(r.Context(), post.ID); err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"success": true})
}

// CommunityLike toggles the caller's like on a post.
func (a *App) CommunityLike(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	liked, count, err := a.Posts.ToggleLike(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"liked": liked, "likeCount": count})
}

func postPayload(post *domain.Post, viewerID string) map[string]any {
	return map[string]any{
		"id":           post.ID,
		"userId":       post.UserID,
		"authorName":   post.AuthorName,
		"authorAvatar": post.AuthorAvatar,
		"title":        post.Title,
		"description":  post.Description,
		"mediaUrl":     post.MediaURL,
		"mediaType":    post.MediaType,
		"link":         post.Link,
		"likeCount":    len(post.Likes),
		"liked":        viewerID != "" && post.LikedBy(viewerID),
		"createdAt":    post.CreatedAt,
	}
}
