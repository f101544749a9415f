package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestFetchQuestionBroadensWithoutSubtopic(t *testing.T) {
	var subtopics []string
	client := newTestClient(t, roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		subtopics = append(subtopics, r.URL.Query().Get("subtopic"))
		if r.URL.Query().Get("subtopic") != "" {
			return jsonResponse(http.StatusOK, `{"success":true,"data":[]}`), nil
		}
		return jsonResponse(http.StatusOK, `{"success":true,"data":{"questions":[{"base52":"Xy1","question":"Broad?"}]}}`), nil
	}))

	q, err := client.FetchQuestion(context.Background(), SearchParams{Event: "Fossils", Subtopic: "trilobites"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if q.Text != "Broad?" {
		t.Fatalf("unexpected question %+v", q)
	}
	if len(subtopics) != 2 || subtopics[0] != "trilobites" || subtopics[1] != "" {
		t.Fatalf("expected narrow then broad search, got %v", subtopics)
	}
}

func TestFetchQuestionNoResults(t *testing.T) {
	client := newTestClient(t, roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"success":true,"data":[]}`), nil
	}))

	if _, err := client.FetchQuestion(context.Background(), SearchParams{Event: "Fossils"}); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func TestFetchQuestionSkipsInvalidCandidates(t *testing.T) {
	client := newTestClient(t, roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"data":[{"options":["a"]},{"base52":"ok","prompt":"Valid?"}]}`), nil
	}))

	q, err := client.FetchQuestion(context.Background(), SearchParams{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if q.ShortCode != "ok" {
		t.Fatalf("expected the valid candidate, got %+v", q)
	}
}

func TestFetchQuestionEnrichesFromDetail(t *testing.T) {
	client := newTestClient(t, roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		if strings.HasSuffix(r.URL.Path, "/questions/17") {
			return jsonResponse(http.StatusOK, `{"success":true,"data":{"id":17,"base52":"Qz9","question":"Detailed?","options":["a","b"],"answers":[1]}}`), nil
		}
		return jsonResponse(http.StatusOK, `{"success":true,"data":[{"id":17,"question":"Short?"}]}`), nil
	}))

	q, err := client.FetchQuestion(context.Background(), SearchParams{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if q.ShortCode != "Qz9" || q.Text != "Detailed?" || len(q.Options) != 2 {
		t.Fatalf("expected detailed question, got %+v", q)
	}
}

func TestFetchQuestionKeepsOriginalWhenDetailFails(t *testing.T) {
	client := newTestClient(t, roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		if strings.HasSuffix(r.URL.Path, "/questions/17") {
			return jsonResponse(http.StatusNotFound, `missing`), nil
		}
		return jsonResponse(http.StatusOK, `{"success":true,"data":[{"id":17,"question":"Short?"}]}`), nil
	}))

	q, err := client.FetchQuestion(context.Background(), SearchParams{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if q.Text != "Short?" || q.ID != "17" {
		t.Fatalf("expected original question, got %+v", q)
	}
}

func TestFetchIDQuestionUnsupportedEvent(t *testing.T) {
	client := newTestClient(t, roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		t.Fatalf("unexpected request to %s", r.URL)
		return nil, nil
	}))

	if _, err := client.FetchIDQuestion(context.Background(), "Codebusters", ""); !errors.Is(err, ErrIDUnsupported) {
		t.Fatalf("expected ErrIDUnsupported, got %v", err)
	}
	if _, err := client.FetchIDQuestion(context.Background(), "Forensics", "B"); !errors.Is(err, ErrIDUnsupported) {
		t.Fatalf("expected ErrIDUnsupported for unsupported division, got %v", err)
	}
}

func TestFetchIDQuestionMarksIdentification(t *testing.T) {
	var seenPath, seenDivision string
	client := newTestClient(t, roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		seenPath = r.URL.Path
		seenDivision = r.URL.Query().Get("division")
		return jsonResponse(http.StatusOK, `{"success":true,"data":[{"id":3,"question":"Identify this mineral","imageUrl":"https://img.test/q.png","answers":["Quartz"]}]}`), nil
	}))

	q, err := client.FetchIDQuestion(context.Background(), "Rocks and Minerals", "c")
	if err != nil {
		t.Fatalf("fetch id: %v", err)
	}
	if !q.Identification || q.ImageURL == "" {
		t.Fatalf("expected identification question with image, got %+v", q)
	}
	if seenPath != "/api/id-questions" || seenDivision != "C" {
		t.Fatalf("unexpected request path=%s division=%s", seenPath, seenDivision)
	}
}
