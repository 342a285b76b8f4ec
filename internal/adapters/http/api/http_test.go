package api_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/okian/dinger/internal/adapters/http/api"
	service "github.com/okian/dinger/internal/app"
	"github.com/okian/dinger/internal/domain/model"
	"github.com/okian/dinger/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

type mockDeps struct {
	players   map[string]types.Profile
	clips     map[string][]string
	similar   []types.Neighbor
	lastLimit int

	reloadErr error
	submitErr error
	maxTopN   int
	submitted []model.DigestJob
	seen      map[string]bool
	digests   map[string]types.Digest
}

func newMockDeps() *mockDeps {
	return &mockDeps{
		players: map[string]types.Profile{
			"Jane Doe": {Name: "Jane Doe", ExitVelocityAvg: 94, HitDistanceAvg: 390, LaunchAngleAvg: 26.5, SampleSize: 2},
		},
		clips: map[string][]string{
			"Jane Doe": {"https://clips.test/v1.mp4", "https://clips.test/v2.mp4"},
		},
		similar: []types.Neighbor{
			{Rank: 1, Profile: types.Profile{Name: "Mark Lee", ExitVelocityAvg: 90, HitDistanceAvg: 410, LaunchAngleAvg: 30, SampleSize: 1}, Distance: 20.69},
			{Rank: 2, Profile: types.Profile{Name: "Bo Kim", ExitVelocityAvg: types.Metric(math.NaN())}, Distance: types.Metric(math.NaN())},
		},
		seen:    map[string]bool{},
		digests: map[string]types.Digest{},
		maxTopN: 100,
	}
}

func (m *mockDeps) Profile(_ context.Context, name string) (types.Profile, error) {
	if strings.TrimSpace(name) == "" {
		return types.Profile{}, service.ErrInvalidName
	}
	if m.players == nil {
		return types.Profile{}, service.ErrDatasetUnavailable
	}
	p, ok := m.players[name]
	if !ok {
		return types.Profile{Name: name}, nil
	}
	return p, nil
}

func (m *mockDeps) Similar(_ context.Context, _ string, limit int) ([]types.Neighbor, error) {
	if limit > 100 {
		return nil, fmt.Errorf("%w: %d", service.ErrInvalidLimit, limit)
	}
	m.lastLimit = limit
	return m.similar, nil
}

func (m *mockDeps) Media(_ context.Context, name string) (types.MediaList, error) {
	clips := m.clips[name]
	if clips == nil {
		clips = []string{}
	}
	return types.MediaList{Player: name, Clips: clips}, nil
}

func (m *mockDeps) RandomMedia(_ context.Context, name string) (types.Clip, error) {
	clips := m.clips[name]
	if len(clips) == 0 {
		return types.Clip{}, service.ErrNoMedia
	}
	return types.Clip{Player: name, Video: clips[0]}, nil
}

func (m *mockDeps) DefaultTopN() int { return 5 }

func (m *mockDeps) DatasetInfo(_ context.Context) (types.DatasetInfo, error) {
	if m.players == nil {
		return types.DatasetInfo{}, service.ErrDatasetUnavailable
	}
	return types.DatasetInfo{Source: "data/homeruns.csv", Rows: 3, Players: 2, Dropped: 1}, nil
}

func (m *mockDeps) Reload(_ context.Context) (types.DatasetInfo, error) {
	if m.reloadErr != nil {
		return types.DatasetInfo{}, fmt.Errorf("%w: %w", service.ErrReloadFailed, m.reloadErr)
	}
	return types.DatasetInfo{Source: "data/homeruns.csv", Rows: 3, Players: 2}, nil
}

func (m *mockDeps) SubmitDigest(_ context.Context, job model.DigestJob) (model.DigestJob, bool, error) {
	if m.submitErr != nil {
		return job, false, m.submitErr
	}
	if job.TopN > m.maxTopN {
		return job, false, fmt.Errorf("%w: %d", service.ErrInvalidLimit, job.TopN)
	}
	if job.JobID == "" {
		job.JobID = "generated-id"
	}
	if m.seen[job.JobID] {
		return job, true, nil
	}
	m.seen[job.JobID] = true
	m.submitted = append(m.submitted, job)
	return job, false, nil
}

func (m *mockDeps) Digest(_ context.Context, id string) (types.Digest, error) {
	d, ok := m.digests[id]
	if !ok {
		return types.Digest{}, fmt.Errorf("%w: %s", service.ErrDigestNotFound, id)
	}
	return d, nil
}

type mockStats struct{}

func (mockStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true, "records": 3}
}

func newMux(deps *mockDeps) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, mockStats{}).Register(context.Background(), mux)
	return mux
}

func do(mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func errorCode(rec *httptest.ResponseRecorder) string {
	var body struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return body.Code
}

func TestPlayerRoutes(t *testing.T) {
	Convey("Given the API over mock dependencies", t, func() {
		deps := newMockDeps()
		mux := newMux(deps)

		Convey("When requesting a profile with an escaped name", func() {
			rec := do(mux, http.MethodGet, "/players/Jane%20Doe/profile", "")

			Convey("Then the averages come back as JSON", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Header().Get("Content-Type"), ShouldStartWith, "application/json")
				var p types.Profile
				So(json.Unmarshal(rec.Body.Bytes(), &p), ShouldBeNil)
				So(p.Name, ShouldEqual, "Jane Doe")
				So(float64(p.LaunchAngleAvg), ShouldEqual, 26.5)
				So(p.SampleSize, ShouldEqual, 2)
			})
		})

		Convey("When requesting an unknown player's profile", func() {
			rec := do(mux, http.MethodGet, "/players/Nobody/profile", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"exit_velocity_avg":0`)
		})

		Convey("When the dataset is unavailable", func() {
			deps.players = nil
			rec := do(mux, http.MethodGet, "/players/Jane%20Doe/profile", "")
			So(rec.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(errorCode(rec), ShouldEqual, "dataset_unavailable")
		})

		Convey("When requesting similar players", func() {
			rec := do(mux, http.MethodGet, "/players/Jane%20Doe/similar?limit=2", "")

			Convey("Then NaN values are encoded as null", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(deps.lastLimit, ShouldEqual, 2)
				So(rec.Body.String(), ShouldContainSubstring, `"name":"Mark Lee"`)
				So(rec.Body.String(), ShouldContainSubstring, `"distance":null`)
			})
		})

		Convey("When the limit is omitted", func() {
			rec := do(mux, http.MethodGet, "/players/Jane%20Doe/similar", "")

			Convey("Then the default is applied and reported", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(deps.lastLimit, ShouldEqual, 0)
				So(rec.Body.String(), ShouldContainSubstring, `"limit":5`)
			})
		})

		Convey("When an explicit limit is given", func() {
			rec := do(mux, http.MethodGet, "/players/Jane%20Doe/similar?limit=2", "")
			So(rec.Body.String(), ShouldContainSubstring, `"limit":2`)
		})

		Convey("When the limit is malformed", func() {
			for _, q := range []string{"abc", "0", "-3"} {
				rec := do(mux, http.MethodGet, "/players/Jane%20Doe/similar?limit="+q, "")
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(errorCode(rec), ShouldEqual, "bad_request")
			}
		})

		Convey("When the limit exceeds the maximum", func() {
			rec := do(mux, http.MethodGet, "/players/Jane%20Doe/similar?limit=500", "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When listing media", func() {
			rec := do(mux, http.MethodGet, "/players/Jane%20Doe/media", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			var list types.MediaList
			So(json.Unmarshal(rec.Body.Bytes(), &list), ShouldBeNil)
			So(list.Clips, ShouldHaveLength, 2)

			rec = do(mux, http.MethodGet, "/players/Nobody/media", "")
			So(rec.Body.String(), ShouldContainSubstring, `"clips":[]`)
		})

		Convey("When picking a random clip", func() {
			rec := do(mux, http.MethodGet, "/players/Jane%20Doe/media/random", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "clips.test/v1.mp4")

			rec = do(mux, http.MethodGet, "/players/Nobody/media/random", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
			So(errorCode(rec), ShouldEqual, "not_found")
		})

		Convey("When using the wrong method", func() {
			rec := do(mux, http.MethodPost, "/players/Jane%20Doe/profile", "")
			So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestDatasetAndStatsRoutes(t *testing.T) {
	Convey("Given the API over mock dependencies", t, func() {
		deps := newMockDeps()
		mux := newMux(deps)

		Convey("When reading the dataset info", func() {
			rec := do(mux, http.MethodGet, "/dataset", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			var info types.DatasetInfo
			So(json.Unmarshal(rec.Body.Bytes(), &info), ShouldBeNil)
			So(info.Rows, ShouldEqual, 3)
			So(info.Dropped, ShouldEqual, 1)
		})

		Convey("When the dataset info is unavailable", func() {
			deps.players = nil
			rec := do(mux, http.MethodGet, "/dataset", "")
			So(rec.Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("When reloading succeeds", func() {
			rec := do(mux, http.MethodPost, "/dataset/reload", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"rows":3`)
		})

		Convey("When reloading fails", func() {
			deps.reloadErr = errors.New("upstream down")
			rec := do(mux, http.MethodPost, "/dataset/reload", "")
			So(rec.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(errorCode(rec), ShouldEqual, "dataset_unavailable")
		})

		Convey("When reading stats", func() {
			rec := do(mux, http.MethodGet, "/stats", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"records":3`)
		})

		Convey("When scraping health", func() {
			_ = do(mux, http.MethodGet, "/stats", "")
			rec := do(mux, http.MethodGet, "/healthz", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "dinger_core_http_requests_total")
		})
	})
}

func TestDigestRoutes(t *testing.T) {
	Convey("Given the API over mock dependencies", t, func() {
		deps := newMockDeps()
		mux := newMux(deps)

		Convey("When a valid digest request is posted", func() {
			rec := do(mux, http.MethodPost, "/digests", `{"job_id":"job-1","player":"Jane Doe","top_n":3}`)

			Convey("Then it is accepted with a location", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)
				So(rec.Header().Get("Location"), ShouldEqual, "/digests/job-1")
				So(deps.submitted, ShouldHaveLength, 1)
				So(deps.submitted[0].TopN, ShouldEqual, 3)
				So(deps.submitted[0].Requested.IsZero(), ShouldBeFalse)
			})

			Convey("Then the same id is acknowledged as a duplicate", func() {
				rec := do(mux, http.MethodPost, "/digests", `{"job_id":"job-1","player":"Jane Doe"}`)
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"duplicate":true`)
			})
		})

		Convey("When the id is omitted", func() {
			rec := do(mux, http.MethodPost, "/digests", `{"player":"Jane Doe"}`)
			So(rec.Code, ShouldEqual, http.StatusAccepted)
			So(rec.Body.String(), ShouldContainSubstring, `"job_id":"generated-id"`)
		})

		Convey("When the body is invalid", func() {
			for _, body := range []string{`{`, `{"player":""}`, `{"player":"Jane Doe","top_n":1000}`} {
				rec := do(mux, http.MethodPost, "/digests", body)
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(errorCode(rec), ShouldEqual, "bad_request")
			}
			So(deps.submitted, ShouldBeEmpty)
		})

		Convey("When top_n is above the default maximum but within the configured one", func() {
			deps.maxTopN = 500
			rec := do(mux, http.MethodPost, "/digests", `{"player":"Jane Doe","top_n":200}`)

			Convey("Then the service decides and accepts it", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)
				So(deps.submitted, ShouldHaveLength, 1)
				So(deps.submitted[0].TopN, ShouldEqual, 200)
			})
		})

		Convey("When top_n is not positive", func() {
			rec := do(mux, http.MethodPost, "/digests", `{"player":"Jane Doe","top_n":-1}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the queue is full", func() {
			deps.submitErr = fmt.Errorf("%w: queue full", service.ErrBackpressure)
			rec := do(mux, http.MethodPost, "/digests", `{"player":"Jane Doe"}`)
			So(rec.Code, ShouldEqual, http.StatusTooManyRequests)
			So(errorCode(rec), ShouldEqual, "backpressure")
		})

		Convey("When the service has not started", func() {
			deps.submitErr = service.ErrNotStarted
			rec := do(mux, http.MethodPost, "/digests", `{"player":"Jane Doe"}`)
			So(rec.Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("When reading digests", func() {
			deps.digests["job-9"] = types.Digest{JobID: "job-9", Player: "Jane Doe", Status: types.DigestReady, Similar: []types.Neighbor{}}

			rec := do(mux, http.MethodGet, "/digests/job-9", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"status":"ready"`)

			rec = do(mux, http.MethodGet, "/digests/nope", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestErrorHelpers(t *testing.T) {
	Convey("Given wrapped API errors", t, func() {
		cause := errors.New("boom")

		Convey("Then kinds and causes are both visible to errors.Is", func() {
			err := api.WrapKind("api.op", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: boom")
		})

		Convey("Then a kind without a cause is still matched", func() {
			err := api.WrapKind("api.op", api.ErrNotFound, nil)
			So(errors.Is(err, api.ErrNotFound), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: not found")
		})
	})
}
