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

// This file provides hardcoded example instances used for few-shot prompting.
// Embedding a concrete example of the expected JSON shape in the prompt keeps
// the model's output consistent and parsable.
package model

// GetExampleCaption returns a sample caption response. It is rendered into
// the captioning prompt so the model mirrors the exact field names and the
// one-sentence, observable-events register.
func GetExampleCaption() *CaptionOutput {
	return &CaptionOutput{
		Caption:     "A person in a dark jacket walks across the parking lot toward the building entrance carrying a bag.",
		ThreatLevel: "low",
	}
}

// GetExampleEmptyCaption returns the sample for an uneventful segment: an
// empty caption is the expected output when nothing noteworthy happens.
func GetExampleEmptyCaption() *CaptionOutput {
	return &CaptionOutput{
		Caption:     "",
		ThreatLevel: "low",
	}
}
