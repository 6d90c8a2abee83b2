package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/okian/resonance/internal/adapters/http/api"
	service "github.com/okian/resonance/internal/app"
	"github.com/okian/resonance/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type mockDeps struct {
	artist     model.MetricsRecord
	comparable model.MetricsRecord
	tierRec    model.MetricsRecord
	retrainRec model.MetricsRecord
	retrainErr error
	calls      int
}

func (m *mockDeps) Resonance(_ context.Context, artist, comparable model.MetricsRecord) model.ResonanceResult {
	m.calls++
	m.artist, m.comparable = artist, comparable
	return model.ResonanceResult{
		PredictedScore:     62,
		ConfidenceInterval: [2]float64{50, 74},
		Confidence:         60,
		FeatureImportance:  map[string]float64{"popularity": 1},
		ModelID:            "m-1",
	}
}

func (m *mockDeps) Tier(_ context.Context, rec model.MetricsRecord) model.TierResult {
	m.calls++
	m.tierRec = rec
	return model.TierResult{Tier: "Global Icon", Rank: 9, CompositeScore: 290}
}

func (m *mockDeps) Retrain(_ context.Context, rec model.MetricsRecord) (service.ModelInfo, error) {
	m.calls++
	m.retrainRec = rec
	if m.retrainErr != nil {
		return service.ModelInfo{}, m.retrainErr
	}
	return service.ModelInfo{ID: "m-2", Key: "process", Samples: 1000}, nil
}

func (m *mockDeps) GetStats() map[string]interface{} {
	return map[string]interface{}{"trainings": 3, "model_scope": "process"}
}

func newMux(deps *mockDeps) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps).Register(mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps)

		Convey("Then healthz should serve Prometheus metrics", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/plain")
		})

		Convey("Then stats should return the provider's map", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var stats map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
			So(stats["model_scope"], ShouldEqual, "process")
		})

		Convey("Then unknown paths should be 404", func() {
			So(do(mux, http.MethodGet, "/unknown", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Then wrong methods should be 404", func() {
			So(do(mux, http.MethodGet, "/resonance", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/tier", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/model/retrain", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodPost, "/stats", "{}").Code, ShouldEqual, http.StatusNotFound)
			So(deps.calls, ShouldEqual, 0)
		})
	})
}

func TestResonanceHandler(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps)

		Convey("When posting a valid artist and comparable", func() {
			w := do(mux, http.MethodPost, "/resonance",
				`{"artist":{"spotify_followers":120000,"genres":["pop"]},"comparable":{"spotify_followers":5000000}}`)

			Convey("Then the records should reach the service and the result be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(*deps.artist.SpotifyFollowers, ShouldEqual, 120000)
				So(deps.artist.Genres, ShouldResemble, []string{"pop"})
				So(deps.artist.Popularity, ShouldBeNil)
				So(*deps.comparable.SpotifyFollowers, ShouldEqual, 5000000)

				var res model.ResonanceResult
				So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
				So(res.PredictedScore, ShouldEqual, 62)
				So(res.ModelID, ShouldEqual, "m-1")
			})
		})

		Convey("When posting an empty object", func() {
			w := do(mux, http.MethodPost, "/resonance", `{}`)

			Convey("Then it should be scored with every field absent", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.calls, ShouldEqual, 1)
			})
		})

		Convey("When a metric is out of range", func() {
			w := do(mux, http.MethodPost, "/resonance", `{"artist":{"popularity":150}}`)

			Convey("Then it should be rejected before scoring", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "Popularity")
				So(deps.calls, ShouldEqual, 0)
			})
		})

		Convey("When the body is malformed", func() {
			for _, body := range []string{`not json`, `{"artist":{"energy":"high"}}`, `{"unknown":1}`, ``} {
				w := do(mux, http.MethodPost, "/resonance", body)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
			So(deps.calls, ShouldEqual, 0)
		})
	})
}

func TestTierHandler(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps)

		Convey("When posting metrics", func() {
			w := do(mux, http.MethodPost, "/tier", `{"metrics":{"spotify_followers":95000000,"popularity":95}}`)

			Convey("Then the tier should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(*deps.tierRec.SpotifyFollowers, ShouldEqual, 95000000)
				var res model.TierResult
				So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
				So(res.Tier, ShouldEqual, "Global Icon")
				So(res.Rank, ShouldEqual, 9)
			})
		})

		Convey("When a count is negative", func() {
			w := do(mux, http.MethodPost, "/tier", `{"metrics":{"awards_count":-1}}`)

			Convey("Then it should be rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(deps.calls, ShouldEqual, 0)
			})
		})
	})
}

func TestRetrainHandler(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps)

		Convey("When retraining without a body", func() {
			w := do(mux, http.MethodPost, "/model/retrain", "")

			Convey("Then the new model should be described", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var info service.ModelInfo
				So(json.Unmarshal(w.Body.Bytes(), &info), ShouldBeNil)
				So(info.ID, ShouldEqual, "m-2")
				So(deps.retrainRec.SpotifyFollowers, ShouldBeNil)
			})
		})

		Convey("When retraining for a specific artist", func() {
			w := do(mux, http.MethodPost, "/model/retrain", `{"artist":{"spotify_followers":42}}`)

			Convey("Then the artist should select the model", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(*deps.retrainRec.SpotifyFollowers, ShouldEqual, 42)
			})
		})

		Convey("When training fails", func() {
			deps.retrainErr = errors.New("boom")
			w := do(mux, http.MethodPost, "/model/retrain", "")

			Convey("Then a server error should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(w.Body.String(), ShouldContainSubstring, "retrain_failed")
			})
		})
	})
}
