// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package media

import "testing"

func TestParseURL(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{
			name:       "s3 scheme",
			raw:        "s3://my-bucket/creatives/summer.jpg",
			wantBucket: "my-bucket",
			wantKey:    "creatives/summer.jpg",
		},
		{
			name:       "virtual hosted https",
			raw:        "https://my-bucket.s3.sa-east-1.amazonaws.com/creatives/summer.jpg",
			wantBucket: "my-bucket",
			wantKey:    "creatives/summer.jpg",
		},
		{
			name:    "plain https",
			raw:     "https://example.com/image.jpg",
			wantErr: true,
		},
		{
			name:    "missing key",
			raw:     "s3://my-bucket",
			wantErr: true,
		},
		{
			name:    "missing bucket",
			raw:     "s3:///creatives/summer.jpg",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, key, err := ParseURL(tt.raw)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.raw)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if bucket != tt.wantBucket || key != tt.wantKey {
				t.Errorf("ParseURL(%q) = (%q, %q), want (%q, %q)",
					tt.raw, bucket, key, tt.wantBucket, tt.wantKey)
			}
		})
	}
}

func TestDetectMediaType(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"banner.jpg", "image/jpeg"},
		{"banner.JPEG", "image/jpeg"},
		{"logo.png", "image/png"},
		{"clip.mp4", "video/mp4"},
		{"clip.mov", "video/quicktime"},
		{"notes.txt", ""},
		{"no_extension", ""},
	}

	for _, tt := range tests {
		if got := DetectMediaType(tt.name); got != tt.want {
			t.Errorf("DetectMediaType(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
