package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/okian/overlay/internal/adapters/http/api"
	"github.com/okian/overlay/internal/adapters/repository"
	"github.com/okian/overlay/internal/domain/model"
	"github.com/okian/overlay/internal/domain/overlay"
	"github.com/okian/overlay/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.InitWithWriter(io.Discard); err != nil {
		panic(err)
	}
}

// fakeDeps applies pushes synchronously to a real store. A non-nil reject
// is returned for every well-formed push instead of applying it.
type fakeDeps struct {
	*repository.SnapshotStore
	reject error
}

func newFakeDeps() *fakeDeps {
	return &fakeDeps{SnapshotStore: repository.NewSnapshotStore()}
}

func (f *fakeDeps) UpdateGameDataJSON(ctx context.Context, payload []byte) error {
	snap, err := model.DecodeSnapshot(payload)
	if err != nil {
		return err
	}
	if f.reject != nil {
		return f.reject
	}
	f.Apply(ctx, snap)
	return nil
}

func (f *fakeDeps) View(ctx context.Context) overlay.View {
	return overlay.BuildView(f.Current(ctx))
}

type fakeStats struct{}

func (fakeStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true, "revision": 3}
}

func newMux(deps *fakeDeps) (*http.ServeMux, *api.Server) {
	mux := http.NewServeMux()
	srv := api.NewServer(deps, fakeStats{}, api.WithViewerBuffer(2))
	srv.Register(context.Background(), mux)
	return mux, srv
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestGameDataEndpoint(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := newFakeDeps()
		mux, srv := newMux(deps)
		defer srv.Close()

		Convey("When a snapshot is pushed", func() {
			w := do(mux, http.MethodPost, "/api/game-data",
				`{"orderTeam":{"gold":15000,"players":[{"champion":"Ahri","gold":3450}]},"chaosTeam":{"gold":5000}}`)

			Convey("Then it is accepted", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				var ack map[string]string
				So(json.Unmarshal(w.Body.Bytes(), &ack), ShouldBeNil)
				So(ack["status"], ShouldEqual, "accepted")
			})

			Convey("Then GET returns the same snapshot", func() {
				w := do(mux, http.MethodGet, "/api/game-data", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")

				snap, err := model.DecodeSnapshot(w.Body.Bytes())
				So(err, ShouldBeNil)
				So(snap.OrderTeam.GetGold(), ShouldEqual, 15000)
				So(snap.OrderTeam.GetPlayers()[0].GetChampion(), ShouldEqual, "Ahri")
				So(snap.WinProbability, ShouldBeNil)
			})

			Convey("Then the overlay view is derived from it", func() {
				w := do(mux, http.MethodGet, "/api/overlay", "")
				So(w.Code, ShouldEqual, http.StatusOK)

				var view overlay.View
				So(json.Unmarshal(w.Body.Bytes(), &view), ShouldBeNil)
				So(view.Order.GoldShare, ShouldEqual, 75)
				So(view.Chaos.GoldShare, ShouldEqual, 25)
				So(view.Order.Players[0].GoldK, ShouldEqual, "3.5k")
				So(view.Order.Players[0].Initial, ShouldEqual, "A")
			})
		})

		Convey("When the payload is not an object", func() {
			w := do(mux, http.MethodPost, "/api/game-data", `"hello"`)

			Convey("Then it is rejected with 400", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				var body map[string]string
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body["code"], ShouldEqual, "bad_request")
				So(body["message"], ShouldContainSubstring, "malformed snapshot")
				So(deps.Revision(context.Background()), ShouldEqual, 0)
			})
		})

		Convey("When the push cannot be queued", func() {
			deps.reject = context.Canceled
			w := do(mux, http.MethodPost, "/api/game-data", `{"orderTeam":{"gold":1}}`)

			Convey("Then it is not reported as accepted", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				var body map[string]string
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body["code"], ShouldEqual, "unavailable")
				So(body["message"], ShouldContainSubstring, "service unavailable")
				So(deps.Revision(context.Background()), ShouldEqual, 0)
			})
		})

		Convey("When the payload is too large", func() {
			w := do(mux, http.MethodPost, "/api/game-data", `{"x":"`+strings.Repeat("a", 1<<20)+`"}`)

			Convey("Then it is rejected with 413", func() {
				So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
			})
		})

		Convey("When an unsupported method is used", func() {
			w := do(mux, http.MethodDelete, "/api/game-data", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(w.Header().Get("Allow"), ShouldEqual, "GET, POST")

			w = do(mux, http.MethodPost, "/api/overlay", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestOpsEndpoints(t *testing.T) {
	Convey("Given the API server", t, func() {
		mux, srv := newMux(newFakeDeps())
		defer srv.Close()

		Convey("Then /stats returns service statistics", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var stats map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
			So(stats["started"], ShouldEqual, true)
		})

		Convey("Then /healthz exposes the metrics registry", func() {
			// Record one request first so an http metric family exists.
			do(mux, http.MethodGet, "/api/overlay", "")
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "overlay_match_http_requests_total")
		})
	})
}

func TestOverlayStream(t *testing.T) {
	Convey("Given a running server with a websocket viewer", t, func() {
		deps := newFakeDeps()
		mux, srv := newMux(deps)
		ts := httptest.NewServer(mux)
		defer ts.Close()
		defer srv.Close()

		url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/overlay"
		conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
		So(err, ShouldBeNil)
		So(resp.StatusCode, ShouldEqual, http.StatusSwitchingProtocols)
		defer conn.Close()

		type frame struct {
			Revision uint64       `json:"revision"`
			View     overlay.View `json:"view"`
		}
		read := func() frame {
			_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			var f frame
			So(conn.ReadJSON(&f), ShouldBeNil)
			return f
		}

		Convey("Then the current view arrives first", func() {
			f := read()
			So(f.Revision, ShouldEqual, 0)
			So(f.View.WinBar.Width, ShouldEqual, 50)
		})

		Convey("When a snapshot is applied", func() {
			read()
			deps.Apply(context.Background(), model.MatchSnapshot{
				OrderTeam:      &model.TeamStats{Gold: model.Int(15000)},
				ChaosTeam:      &model.TeamStats{Gold: model.Int(5000)},
				WinProbability: &model.WinProbability{Order: model.Float(64), Chaos: model.Float(36)},
			})

			Convey("Then the viewer receives the new view", func() {
				f := read()
				So(f.Revision, ShouldEqual, 1)
				So(f.View.Order.GoldShare, ShouldEqual, 75)
				So(f.View.WinBar.Width, ShouldEqual, 64)
			})
		})

		Convey("When the server closes", func() {
			read()
			srv.Close()

			Convey("Then the viewer is disconnected", func() {
				_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
				_, _, err := conn.ReadMessage()
				So(err, ShouldNotBeNil)
				var closeErr *websocket.CloseError
				So(errors.As(err, &closeErr), ShouldBeTrue)
			})
		})
	})

	Convey("Given viewers joining while snapshots are applied", t, func() {
		deps := newFakeDeps()
		mux, srv := newMux(deps)
		ts := httptest.NewServer(mux)
		defer ts.Close()
		defer srv.Close()
		url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/overlay"

		done := make(chan struct{})
		go func() {
			defer close(done)
			for n := 1; n <= 300; n++ {
				deps.Apply(context.Background(), model.MatchSnapshot{
					OrderTeam: &model.TeamStats{Gold: model.Int(n)},
				})
			}
		}()

		matched := true
		for i := 0; i < 20; i++ {
			conn, _, err := websocket.DefaultDialer.Dial(url, nil)
			So(err, ShouldBeNil)
			_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			var f struct {
				Revision uint64       `json:"revision"`
				View     overlay.View `json:"view"`
			}
			So(conn.ReadJSON(&f), ShouldBeNil)
			_ = conn.Close()
			if f.Revision > 0 && uint64(f.View.Order.Gold) != f.Revision {
				matched = false
			}
		}
		<-done

		Convey("Then every first frame carries the view of its revision", func() {
			So(matched, ShouldBeTrue)
		})
	})
}

func TestErrorKinds(t *testing.T) {
	Convey("Given wrapped API errors", t, func() {
		cause := errors.New("boom")
		err := api.WrapKind("api.op", api.ErrBadRequest, cause)

		So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
		So(errors.Is(err, cause), ShouldBeTrue)
		So(err.Error(), ShouldEqual, "api.op: bad request: boom")
		So(api.WrapKind("api.op", api.ErrBadRequest, nil).Error(), ShouldEqual, "api.op: bad request")
		So(errors.Is(api.NewKind("api.op", api.ErrMethodNotAllowed), api.ErrMethodNotAllowed), ShouldBeTrue)
	})
}
