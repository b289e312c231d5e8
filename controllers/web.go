package controllers

import (
	"github.com/gin-gonic/gin"
	"net/http"
)

func MainPage(c *gin.Context) {
	c.String(http.StatusOK, "Serverless GitHub Badges Service.")
}
