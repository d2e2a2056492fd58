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

package services_test

import (
	"strings"
	"testing"

	"github.com/visionaree/gcp-go-video-caption/internal/core/services"
	"github.com/zeebo/assert"
)

// TestInsertJobQueryIsRedeliveryProof pins the creation statement to a merge
// keyed on (job_id, upload_timestamp). A plain insert here would let a
// redelivered upload notification open a second lifecycle for the same
// upload.
func TestInsertJobQueryIsRedeliveryProof(t *testing.T) {
	assert.True(t, strings.HasPrefix(services.QryInsertJob, "MERGE"))
	assert.True(t, strings.Contains(services.QryInsertJob, "WHEN NOT MATCHED THEN INSERT"))
	assert.True(t, strings.Contains(services.QryInsertJob, "T.job_id = S.job_id"))
	assert.True(t, strings.Contains(services.QryInsertJob, "T.upload_timestamp = S.upload_timestamp"))
}

// TestJobQueriesScopeByKey verifies the update and read statements address a
// single logical job record.
func TestJobQueriesScopeByKey(t *testing.T) {
	for _, query := range []string{services.QryUpdateJob, services.QryGetJob} {
		assert.True(t, strings.Contains(query, "job_id = @job_id"))
		assert.True(t, strings.Contains(query, "upload_timestamp = @upload_timestamp"))
	}
	assert.True(t, strings.Contains(services.QryLatestJob, "ORDER BY upload_timestamp DESC LIMIT 1"))
	assert.True(t, strings.Contains(services.QryLatestJobStatus, "ORDER BY upload_timestamp DESC LIMIT 1"))
}
