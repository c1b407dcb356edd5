package middleware

import (
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	e := gin.New()
	e.Use(mw...)
	e.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	e.GET("/fail", func(c *gin.Context) { c.String(http.StatusInternalServerError, "boom") })
	e.GET("/missing", func(c *gin.Context) { c.String(http.StatusNotFound, "nope") })
	e.GET("/panic", func(c *gin.Context) { panic("kaboom") })
	e.GET("/results/:id", func(c *gin.Context) { c.String(http.StatusOK, c.Param("id")) })
	e.POST("/upload", func(c *gin.Context) {
		if _, err := c.GetRawData(); err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too large")
			return
		}
		c.String(http.StatusOK, "read")
	})
	return e
}

func serve(e http.Handler, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)
	return w
}
