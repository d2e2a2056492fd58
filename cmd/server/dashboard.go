// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Dashboard registers the operational endpoints used by monitoring and the
// admin UI: a liveness probe and a small snapshot of the running
// configuration.
func Dashboard(r *gin.RouterGroup) {
	stats := r.Group("/stats")
	{
		stats.GET("", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"application":    state.config.Application.Name,
				"caption_models": len(state.config.CaptionModels),
				"listeners":      len(state.cloud.PubSubListeners),
				"cache_enabled":  state.cloud.RedisClient != nil,
			})
		})
		stats.GET("/healthz", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})
	}
}
