package diarize

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/scribeworks/meetscribe/internal/config"
	"github.com/scribeworks/meetscribe/internal/transcript"
)

func TestClientDiarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/process" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(diarizeResponse{Speakers: []Turn{
			{Speaker: "SPEAKER_00", Start: 0, End: 5},
			{Speaker: "SPEAKER_01", Start: 5, End: 10},
		}})
	}))
	defer srv.Close()

	client := NewClient(config.DiarizeConfig{Endpoint: srv.URL, RequestTimeoutMS: 1000})
	turns, err := client.Diarize(context.Background(), "clip.wav", 2)
	if err != nil {
		t.Fatalf("diarize: %v", err)
	}
	if len(turns) != 2 || turns[1].Speaker != "SPEAKER_01" {
		t.Fatalf("unexpected turns: %+v", turns)
	}
}

func TestClientDiarizeBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(diarizeResponse{Error: "model not loaded"})
	}))
	defer srv.Close()

	client := NewClient(config.DiarizeConfig{Endpoint: srv.URL, RequestTimeoutMS: 1000})
	if _, err := client.Diarize(context.Background(), "clip.wav", 0); err == nil {
		t.Fatal("expected backend error")
	}
}

func TestClientAssignSpeakersAligns(t *testing.T) {
	var gotRef string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotRef, _ = req["audio_url"].(string)
		json.NewEncoder(w).Encode(diarizeResponse{Speakers: []Turn{
			{Speaker: "SPEAKER_00", Start: 0, End: 6},
			{Speaker: "SPEAKER_01", Start: 6, End: 12},
		}})
	}))
	defer srv.Close()

	client := NewClient(config.DiarizeConfig{Endpoint: srv.URL, RequestTimeoutMS: 1000})
	segments := []transcript.Segment{
		{Text: "hello", Start: 0, End: 5},
		{Text: "hi there", Start: 7, End: 11},
	}
	labeled, err := client.AssignSpeakers(context.Background(), "/tmp/clip.wav", 2, segments)
	if err != nil {
		t.Fatalf("assign speakers: %v", err)
	}
	if gotRef != "/tmp/clip.wav" {
		t.Fatalf("backend got audio ref %q, want /tmp/clip.wav", gotRef)
	}
	if labeled[0].Speaker != "SPEAKER_00" || labeled[1].Speaker != "SPEAKER_01" {
		t.Fatalf("unexpected labels: %+v", labeled)
	}
}

func TestClientAssignSpeakersRequiresAudioRef(t *testing.T) {
	client := NewClient(config.DiarizeConfig{Endpoint: "http://unused", RequestTimeoutMS: 1000})
	segments := []transcript.Segment{{Text: "hello", Start: 0, End: 5}}

	if _, err := client.AssignSpeakers(context.Background(), "", 0, segments); err == nil {
		t.Fatal("expected an error for an empty audio reference")
	}
}
