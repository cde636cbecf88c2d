package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ats-backend/internal/domain"
	"ats-backend/internal/storage"
	"ats-backend/internal/transport/http/ez"
)

// MountUploads serves stored attachments under /uploads/:file.
func MountUploads(g *gin.RouterGroup, files domain.FileStore, log *zap.Logger) {
	g.GET("/:file", func(c *gin.Context) {
		att, err := files.Retrieve(c.Request.Context(), storage.URLPrefix+c.Param("file"))
		if err != nil {
			ez.Fail(c, log, err)
			return
		}
		defer att.Content.Close()
		if att.Inline {
			c.Header("Content-Disposition", "inline")
		}
		c.Header("Content-Type", att.ContentType)
		// 流式输出，支持 Range / If-Modified-Since
		http.ServeContent(c.Writer, c.Request, att.Name, att.ModTime, att.Content)
	})
}
