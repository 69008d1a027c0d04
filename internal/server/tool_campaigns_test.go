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

package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestCreateCBOCampaign(t *testing.T) {
	var gotForm map[string][]string

	srv := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/act_123/campaigns") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parsing form: %v", err)
		}
		gotForm = r.PostForm
		io.WriteString(w, `{"id":"120210000000000001"}`)
	}))

	result, err := srv.handleCreateCBOCampaign(context.Background(), toolRequest(map[string]any{
		"act_id":       "act_123",
		"name":         "Summer Sale CBO",
		"objective":    "OUTCOME_SALES",
		"daily_budget": "5000",
	}))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	var body map[string]any
	if uerr := json.Unmarshal([]byte(resultText(t, result)), &body); uerr != nil {
		t.Fatalf("result is not JSON: %v", uerr)
	}
	if body["id"] != "120210000000000001" {
		t.Errorf("unexpected response: %v", body)
	}

	checks := map[string]string{
		"name":                         "Summer Sale CBO",
		"objective":                    "OUTCOME_SALES",
		"status":                       "PAUSED",
		"campaign_budget_optimization": "true",
		"bid_strategy":                 "LOWEST_COST_WITHOUT_CAP",
		"special_ad_categories":        "[]",
		"daily_budget":                 "5000",
	}
	for key, want := range checks {
		if got := gotForm[key]; len(got) != 1 || got[0] != want {
			t.Errorf("form field %s = %v, want %q", key, got, want)
		}
	}
}

func TestCreateCBOCampaign_RequiresBudget(t *testing.T) {
	srv := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be sent without a budget")
	}))

	result, err := srv.handleCreateCBOCampaign(context.Background(), toolRequest(map[string]any{
		"act_id":    "act_123",
		"name":      "No Budget",
		"objective": "OUTCOME_SALES",
	}))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if !result.IsError {
		t.Error("expected error result for missing budget")
	}
}

func TestCreateCBOCampaign_BidCapNeedsAmount(t *testing.T) {
	srv := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be sent without a bid amount")
	}))

	result, err := srv.handleCreateCBOCampaign(context.Background(), toolRequest(map[string]any{
		"act_id":       "act_123",
		"name":         "Capped",
		"objective":    "OUTCOME_SALES",
		"daily_budget": "5000",
		"bid_strategy": "COST_CAP",
	}))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if !result.IsError {
		t.Error("expected error result when COST_CAP has no bid_amount")
	}
}

func TestCreateCBOCampaign_APIFailureEnvelope(t *testing.T) {
	srv := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"message":"Invalid parameter","code":100}}`)
	}))

	result, err := srv.handleCreateCBOCampaign(context.Background(), toolRequest(map[string]any{
		"act_id":       "act_123",
		"name":         "Doomed",
		"objective":    "OUTCOME_SALES",
		"daily_budget": "5000",
	}))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	var env failureEnvelope
	if uerr := json.Unmarshal([]byte(resultText(t, result)), &env); uerr != nil {
		t.Fatalf("failure payload is not JSON: %v", uerr)
	}
	if env.Error != "Failed to create CBO campaign" {
		t.Errorf("unexpected action: %q", env.Error)
	}
	if env.Response == nil {
		t.Error("provider body should be attached")
	}
	if env.ParamsSent["name"] != "Doomed" {
		t.Errorf("params_sent missing name: %v", env.ParamsSent)
	}
}

func TestSetCampaignStatus(t *testing.T) {
	srv := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/120210000000000001") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parsing form: %v", err)
		}
		if got := r.PostForm.Get("status"); got != "ACTIVE" {
			t.Errorf("status = %q", got)
		}
		io.WriteString(w, `{"success":true}`)
	}))

	result, err := srv.handleSetCampaignStatus(context.Background(), toolRequest(map[string]any{
		"campaign_id": "120210000000000001",
		"status":      "ACTIVE",
	}))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if result.IsError {
		t.Errorf("unexpected error result: %s", resultText(t, result))
	}
}
