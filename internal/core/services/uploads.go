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

package services

import (
	"context"
	"fmt"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	credentialspb "cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// UploadService issues V4 signed PUT URLs so browsers upload original
// videos straight to the bucket. The server never proxies video bytes.
type UploadService struct {
	StorageClient *storage.Client
	IAMClient     *credentials.IamCredentialsClient
	SignerEmail   string
	Bucket        string
}

// PresignedUpload is the issued upload target.
type PresignedUpload struct {
	URL        string `json:"url"`
	ObjectPath string `json:"object_path"`
	Bucket     string `json:"bucket"`
}

// GeneratePresignedUploadURL signs a PUT URL for an original upload under
// videos/{jobID}/original/. A UUID prefix on the filename prevents two
// uploads from colliding on the same object.
func (s *UploadService) GeneratePresignedUploadURL(ctx context.Context, jobID string, filename string, contentType string, expires time.Duration) (*PresignedUpload, error) {
	objectPath := fmt.Sprintf("videos/%s/original/%s_%s", jobID, uuid.NewString(), filename)

	opts := &storage.SignedURLOptions{
		Scheme:      storage.SigningSchemeV4,
		Method:      "PUT",
		Expires:     time.Now().Add(expires),
		ContentType: contentType,
	}
	if s.SignerEmail != "" && s.IAMClient != nil {
		// Sign through the IAM Credentials API so no service account key
		// file is needed on the host.
		opts.GoogleAccessID = s.SignerEmail
		opts.SignBytes = func(b []byte) ([]byte, error) {
			req := &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", s.SignerEmail),
				Payload: b,
			}
			resp, err := s.IAMClient.SignBlob(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("IAMClient.SignBlob: %w", err)
			}
			return resp.SignedBlob, nil
		}
	}

	u, err := s.StorageClient.Bucket(s.Bucket).SignedURL(objectPath, opts)
	if err != nil {
		return nil, fmt.Errorf("Bucket(%q).SignedURL: %w", s.Bucket, err)
	}
	return &PresignedUpload{URL: u, ObjectPath: objectPath, Bucket: s.Bucket}, nil
}
