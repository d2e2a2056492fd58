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

package cloud

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// quotaRetryBackoff is the pause between retries after a failed generation
// call, giving the service time to recover from transient errors.
const quotaRetryBackoff = 10 * time.Second

// quotaMaxRetries bounds the retry loop inside the wrapper. Callers should
// not retry on top of this.
const quotaMaxRetries = 3

// QuotaAwareGenerativeAIModel decorates a Vertex AI model handle with rate
// limiting and bounded retries. Vertex enforces per-minute request quotas;
// without the limiter a caption fan-out would exhaust the quota and turn
// every subsequent segment into an error.
type QuotaAwareGenerativeAIModel struct {
	GenerativeContentConfig *genai.GenerateContentConfig
	ModelName               string
	ModelHandle             *genai.Models
	RateLimit               *rate.Limiter
}

// NewQuotaAwareModel wraps the given model handle and generation config with
// a limiter refilling once per second and bursting up to requestsPerSecond.
func NewQuotaAwareModel(config *genai.GenerateContentConfig, name string, handle *genai.Models, requestsPerSecond int) *QuotaAwareGenerativeAIModel {
	if requestsPerSecond < 1 {
		requestsPerSecond = 1
	}
	return &QuotaAwareGenerativeAIModel{
		GenerativeContentConfig: config,
		ModelName:               name,
		ModelHandle:             handle,
		RateLimit:               rate.NewLimiter(rate.Every(time.Second), requestsPerSecond),
	}
}

// GenerateContent waits for a rate limiter token, then calls the underlying
// model, retrying up to quotaMaxRetries times on failure. Context
// cancellation aborts both the limiter wait and the backoff sleep.
func (q *QuotaAwareGenerativeAIModel) GenerateContent(ctx context.Context, content []*genai.Content) (*genai.GenerateContentResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= quotaMaxRetries; attempt++ {
		if err := q.RateLimit.Wait(ctx); err != nil {
			return nil, err
		}
		resp, err := q.ModelHandle.GenerateContent(ctx, q.ModelName, content, q.GenerativeContentConfig)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if attempt < quotaMaxRetries {
			select {
			case <-time.After(quotaRetryBackoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("generation failed after %d retries: %w", quotaMaxRetries, lastErr)
}
