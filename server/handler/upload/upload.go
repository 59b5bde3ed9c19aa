package upload

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/indieinfra/capture/server/handler/common"
	"github.com/indieinfra/capture/server/metrics"
	"github.com/indieinfra/capture/server/resp"
	"github.com/indieinfra/capture/server/state"
	"github.com/indieinfra/capture/server/util"
	"github.com/indieinfra/capture/storage/media"
	"github.com/indieinfra/capture/storage/mirror"
	"github.com/indieinfra/capture/storage/records"
)

// compensateTimeout bounds the best-effort cleanup after a failed request.
const compensateTimeout = 30 * time.Second

// Response is the body of a successful upload. Absent values encode as null.
type Response struct {
	Message           string   `json:"message"`
	UserID            string   `json:"user_id"`
	ImageURL          *string  `json:"image_url"`
	PhotoURL          *string  `json:"photo_url"`
	VideoURL          *string  `json:"video_url"`
	LocationURL       *string  `json:"location_url"`
	ImageMirrorURL    *string  `json:"image_mirror_url"`
	VideoMirrorURL    *string  `json:"video_mirror_url"`
	LocationMirrorURL *string  `json:"location_mirror_url"`
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
}

// outcome is what one task produced.
type outcome struct {
	stored    *media.Stored
	mirrorKey string
	mirrorURL *string
}

func HandleUpload(st *state.CaptureState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := util.RequireValidUploadContentType(w, r); !ok {
			return
		}

		limits := st.Cfg.Server.Limits
		pm, err := util.ParseMultipart(w, r, int64(limits.MaxPayloadSize), int64(limits.MaxMultipartMem), int64(limits.MaxFileSize))
		if err != nil {
			if !errors.Is(err, util.ErrRequestTooLarge) {
				err = fmt.Errorf("%w: %v", common.Invalid("could not parse multipart body"), err)
			}
			common.LogAndWriteError(w, r, "upload", err)
			return
		}
		defer pm.Close()

		userID, err := st.Sessions.Resolve(r.Context(), w, r)
		if err != nil {
			common.LogAndWriteError(w, r, "resolve session", err)
			return
		}

		rl := util.FromContext(r.Context())
		if rl == nil {
			rl = util.WithRequest(log.Default(), r, userID)
		} else {
			rl = rl.WithUser(userID)
		}
		r = r.WithContext(util.ContextWithLogger(r.Context(), rl))

		p, err := buildPlan(st, userID, pm, time.Now().UTC())
		if err != nil {
			common.LogAndWriteError(w, r, "upload", err)
			return
		}

		if len(p.tasks) == 0 {
			rl.Infof("upload carried no media or location, nothing stored")
			resp.WriteOK(w, buildResponse(p, nil))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), st.Cfg.Upload.Timeout)
		defer cancel()

		outcomes, err := execute(ctx, st, rl, p.tasks)
		if err != nil {
			common.LogAndWriteError(w, r, "upload", err)
			return
		}

		record := buildRecord(p, outcomes)
		if err := st.RecordStore.Insert(ctx, record); err != nil {
			st.Metrics.ObserveRecord(metrics.OutcomeFailure)
			compensate(r.Context(), st, rl, p.tasks, outcomes)
			common.LogAndWriteError(w, r, "upload", fmt.Errorf("%w: %v", common.ErrPersistFailed, err))
			return
		}
		st.Metrics.ObserveRecord(metrics.OutcomeSuccess)

		rl.Infof("upload complete: %d task(s), record %v", len(p.tasks), record.ID)
		resp.WriteOK(w, buildResponse(p, outcomes))
	}
}

// execute runs the plan with at most Upload.Concurrency tasks in flight. The
// first failing primary upload cancels the rest, and every primary upload
// that did complete is compensated before the error is returned.
func execute(ctx context.Context, st *state.CaptureState, rl *util.RequestLogger, tasks []task) ([]outcome, error) {
	outcomes := make([]outcome, len(tasks))
	if len(tasks) == 0 {
		return outcomes, nil
	}

	limit := st.Cfg.Upload.Concurrency
	if limit < 1 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i := range tasks {
		t := &tasks[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			start := time.Now()
			stored, err := st.MediaStore.Upload(gctx, t.asset())
			if err != nil {
				st.Metrics.ObserveUpload(t.kind, metrics.OutcomeFailure, time.Since(start))
				return fmt.Errorf("%s: %w: %v", t.kind, common.ErrUploadFailed, err)
			}
			st.Metrics.ObserveUpload(t.kind, metrics.OutcomeSuccess, time.Since(start))
			outcomes[i].stored = stored

			if mirror.Enabled(st.MirrorStore) && t.mirrorKey != "" {
				if err := st.MirrorStore.Put(gctx, t.mirrorKey, t.contentType, t.body); err != nil {
					st.Metrics.ObserveMirror(t.kind, metrics.OutcomeFailure)
					rl.Warnf("mirror of %s to %q failed: %v", t.kind, t.mirrorKey, err)
					return nil
				}
				st.Metrics.ObserveMirror(t.kind, metrics.OutcomeSuccess)
				u := st.MirrorStore.PublicURL(t.mirrorKey)
				outcomes[i].mirrorKey = t.mirrorKey
				outcomes[i].mirrorURL = &u
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		compensate(ctx, st, rl, tasks, outcomes)
		return nil, err
	}

	return outcomes, nil
}

// compensate deletes the objects this request stored under addresses of its
// own. Shared addresses are left alone since they may hold an earlier
// request's data. Failures are logged only; the client already gets an error.
func compensate(ctx context.Context, st *state.CaptureState, rl *util.RequestLogger, tasks []task, outcomes []outcome) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensateTimeout)
	defer cancel()

	for i, o := range outcomes {
		if o.stored != nil && tasks[i].exclusive {
			if err := st.MediaStore.Delete(ctx, o.stored); err != nil {
				rl.Errorf("compensating delete of %s %q failed: %v", tasks[i].kind, o.stored.URL, err)
			} else {
				st.Metrics.MarkCompensated(tasks[i].kind)
			}
		}

		if o.mirrorKey != "" && tasks[i].mirrorExclusive {
			if err := st.MirrorStore.Delete(ctx, o.mirrorKey); err != nil {
				rl.Errorf("compensating mirror delete of %q failed: %v", o.mirrorKey, err)
			}
		}
	}
}

func urlsByKind(tasks []task, outcomes []outcome) (map[string]*string, map[string]*string) {
	primary := map[string]*string{}
	mirrored := map[string]*string{}

	for i, o := range outcomes {
		if o.stored != nil {
			u := o.stored.URL
			primary[tasks[i].kind] = &u
		}
		mirrored[tasks[i].kind] = o.mirrorURL
	}

	return primary, mirrored
}

func buildRecord(p *plan, outcomes []outcome) *records.Record {
	primary, mirrored := urlsByKind(p.tasks, outcomes)

	return &records.Record{
		UserID:            p.userID,
		PhotoURL:          primary[kindImage],
		VideoURL:          primary[kindVideo],
		PhotoMirrorURL:    mirrored[kindImage],
		VideoMirrorURL:    mirrored[kindVideo],
		Latitude:          p.latitude,
		Longitude:         p.longitude,
		LocationURL:       primary[kindLocation],
		LocationMirrorURL: mirrored[kindLocation],
	}
}

func buildResponse(p *plan, outcomes []outcome) *Response {
	primary, mirrored := urlsByKind(p.tasks, outcomes)

	return &Response{
		Message:           "Upload successful",
		UserID:            p.userID,
		ImageURL:          primary[kindImage],
		PhotoURL:          primary[kindImage],
		VideoURL:          primary[kindVideo],
		LocationURL:       primary[kindLocation],
		ImageMirrorURL:    mirrored[kindImage],
		VideoMirrorURL:    mirrored[kindVideo],
		LocationMirrorURL: mirrored[kindLocation],
		Latitude:          p.latitude,
		Longitude:         p.longitude,
	}
}
