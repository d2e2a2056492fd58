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

// Package services contains the data access layer for jobs and segments.
// This file centralizes the BigQuery SQL used by the services. The `%s`
// placeholder in each query is the fully qualified table name; all values
// are bound as query parameters.
package services

const (
	// QryInsertJob creates the initial bookkeeping row for an upload. A
	// redelivered notification carries the same (job_id, upload_timestamp),
	// so the merge leaves the existing row alone instead of inserting a
	// duplicate lifecycle.
	QryInsertJob = "MERGE `%s` T USING (SELECT @job_id AS job_id, @upload_timestamp AS upload_timestamp) S ON T.job_id = S.job_id AND T.upload_timestamp = S.upload_timestamp WHEN NOT MATCHED THEN INSERT (job_id, upload_timestamp, status, video_file_name, video_uri, video_duration, video_size, resolution, codec, content_type, total_segments, processed_segments, start_time, end_time, error_message) VALUES (@job_id, @upload_timestamp, @status, @video_file_name, @video_uri, @video_duration, @video_size, @resolution, @codec, @content_type, @total_segments, @processed_segments, @start_time, @end_time, @error_message)"

	// QryUpdateJob applies a partial update to one job record. The second
	// placeholder is the SET clause assembled from the requested fields.
	QryUpdateJob = "UPDATE `%s` SET %s WHERE job_id = @job_id AND upload_timestamp = @upload_timestamp"

	// QryGetJob fetches one job record by its logical key.
	QryGetJob = "SELECT * FROM `%s` WHERE job_id = @job_id AND upload_timestamp = @upload_timestamp"

	// QryLatestJob fetches the most recent record for a job id. Re-uploads
	// under the same id create new rows, so latest means newest
	// upload_timestamp.
	QryLatestJob = "SELECT * FROM `%s` WHERE job_id = @job_id ORDER BY upload_timestamp DESC LIMIT 1"

	// QryLatestJobStatus is the narrow variant backing the status poll
	// endpoint.
	QryLatestJobStatus = "SELECT status FROM `%s` WHERE job_id = @job_id ORDER BY upload_timestamp DESC LIMIT 1"

	// QryListSegments returns a job's captioned segments in playback order.
	QryListSegments = "SELECT * FROM `%s` WHERE job_id = @job_id ORDER BY start_time ASC"
)
