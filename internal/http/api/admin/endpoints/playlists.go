package endpoints

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Dune-pebbler/izi-casting/internal/model"
	"github.com/Dune-pebbler/izi-casting/internal/storage"
	"github.com/Dune-pebbler/izi-casting/internal/store"
)

type PlaylistController struct {
	store store.Store
	blobs storage.Storage
}

func NewPlaylistController(st store.Store, blobs storage.Storage) *PlaylistController {
	return &PlaylistController{store: st, blobs: blobs}
}

func RegisterPlaylistRoutes(r gin.IRoutes, st store.Store, blobs storage.Storage) {
	ctl := NewPlaylistController(st, blobs)

	r.DELETE("/playlists/:id", ctl.deletePlaylist)
}

// DELETE /api/admin/playlists/:id
//
// Removes the playlist from the content document and cascades deletion of
// the slide images it owned. Blob deletion is best effort: a failed
// object delete is logged, the playlist is gone either way.
func (p *PlaylistController) deletePlaylist(c *gin.Context) {
	playlistID := c.Param("id")

	doc, ok, err := p.store.Get(c, store.ContentKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load content"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "playlist not found"})
		return
	}

	var content model.ContentDoc
	if err := json.Unmarshal(doc, &content); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "malformed content document"})
		return
	}

	var removed *model.Playlist
	remaining := make([]model.Playlist, 0, len(content.Playlists))
	for _, playlist := range content.Playlists {
		if playlist.ID == playlistID {
			deleted := playlist
			removed = &deleted
			continue
		}
		remaining = append(remaining, playlist)
	}
	if removed == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "playlist not found"})
		return
	}

	updated, err := json.Marshal(model.ContentDoc{Playlists: remaining})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not encode content"})
		return
	}
	if err := p.store.Put(c, store.ContentKey, updated, false); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update content"})
		return
	}

	if p.blobs != nil {
		for _, imageURL := range removed.ImageURLs() {
			if err := p.blobs.Delete(imageURL); err != nil {
				log.Error().Err(err).Str("url", imageURL).Msg("failed to delete slide image blob")
			}
		}
	}

	c.Status(http.StatusNoContent)
}
