package upload

import (
	"bytes"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/indieinfra/capture/server/handler/common"
	"github.com/indieinfra/capture/server/state"
	"github.com/indieinfra/capture/server/util"
	"github.com/indieinfra/capture/storage/media"
	storageutil "github.com/indieinfra/capture/storage/util"
)

// Task kinds, also used as metric labels.
const (
	kindImage    = "image"
	kindVideo    = "video"
	kindLocation = "location"
)

const (
	locationPublicID = "location_data"
	locationFilename = "location.txt"
	locationType     = "text/plain"
)

// task is one independent unit of an upload plan: a primary upload followed
// by an optional mirror copy of the same bytes.
//
// exclusive and mirrorExclusive mark objects whose address belongs to this
// request alone. Only those are removed when the request fails; shared
// addresses may still hold what an earlier request stored.
type task struct {
	kind            string
	mediaKind       media.Kind
	folder          string
	publicID        string
	filename        string
	contentType     string
	body            []byte
	mirrorKey       string
	exclusive       bool
	mirrorExclusive bool
}

func (t *task) asset() *media.Asset {
	return &media.Asset{
		Kind:        t.mediaKind,
		Folder:      t.folder,
		PublicID:    t.publicID,
		Filename:    t.filename,
		ContentType: t.contentType,
		Size:        int64(len(t.body)),
		Body:        bytes.NewReader(t.body),
	}
}

type coordinates struct {
	Latitude  string `validate:"required,latitude"`
	Longitude string `validate:"required,longitude"`
}

// plan is the ordered list of tasks for one request plus the parsed location, if any.
type plan struct {
	userID    string
	token     string
	tasks     []task
	latitude  *float64
	longitude *float64
}

var coordValidator = validator.New()

// buildPlan turns the parsed form into tasks in image, video, location order.
// Absent inputs produce no task.
func buildPlan(st *state.CaptureState, userID string, pm *util.ParsedMultipart, now time.Time) (*plan, error) {
	p := &plan{userID: userID, token: requestToken()}
	perRequestMirror := st.MirrorPattern != nil && st.MirrorPattern.PerRequest()
	folder := userFolder(st.Cfg.Media.Folder, userID)

	image := pm.FileByKey("image", "file")
	video := pm.FileByKey("video")

	if st.Cfg.Upload.RequireFile && image == nil && video == nil {
		return nil, common.Missing("No file provided")
	}

	if image != nil {
		t, err := fileTask(st, p, kindImage, media.KindImage, folder, image, ".jpg", now)
		if err != nil {
			return nil, err
		}
		p.tasks = append(p.tasks, *t)
	}

	if video != nil {
		ext := ".mp4"
		if video.ContentType() == "video/webm" {
			ext = ".webm"
		}
		t, err := fileTask(st, p, kindVideo, media.KindVideo, folder, video, ext, now)
		if err != nil {
			return nil, err
		}
		p.tasks = append(p.tasks, *t)
	}

	lat, lon := pm.Value("latitude"), pm.Value("longitude")
	if lat != "" && lon != "" {
		rawLat, rawLon := pm.Values["latitude"], pm.Values["longitude"]

		if err := coordValidator.Struct(coordinates{Latitude: lat, Longitude: lon}); err != nil {
			return nil, common.Invalid("latitude and longitude must be valid coordinates")
		}

		latF, _ := strconv.ParseFloat(lat, 64)
		lonF, _ := strconv.ParseFloat(lon, 64)
		p.latitude, p.longitude = &latF, &lonF

		key, err := mirrorKey(st.MirrorPattern, p, folder, kindLocation, "location", ".txt", now)
		if err != nil {
			return nil, err
		}

		p.tasks = append(p.tasks, task{
			kind:            kindLocation,
			mediaKind:       media.KindRaw,
			folder:          folder,
			publicID:        locationPublicID,
			filename:        locationFilename,
			contentType:     locationType,
			body:            []byte(LocationPayload(rawLat, rawLon)),
			mirrorKey:       key,
			mirrorExclusive: perRequestMirror,
		})
	}

	return p, nil
}

// LocationPayload is the exact text stored for a coordinate pair.
func LocationPayload(lat, lon string) string {
	return fmt.Sprintf("Latitude: %s\nLongitude: %s", lat, lon)
}

// requestToken is the short suffix that makes a request's object names unique.
func requestToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// uniquePublicID suffixes the slug of the uploaded filename with the request
// token, falling back to the task kind when the filename has no usable slug.
func uniquePublicID(filename, kind, token string) string {
	base := media.PublicIDFromFilename(filename)
	if base == "" {
		base = kind
	}
	return base + "-" + token
}

func fileTask(st *state.CaptureState, p *plan, kind string, mk media.Kind, folder string, mf *util.MultipartFile, mirrorExt string, now time.Time) (*task, error) {
	body, err := mf.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s part: %w", kind, err)
	}

	var filename string
	if mf.Header != nil {
		filename = mf.Header.Filename
	}

	key, err := mirrorKey(st.MirrorPattern, p, folder, kind, kind, mirrorExt, now)
	if err != nil {
		return nil, err
	}

	return &task{
		kind:            kind,
		mediaKind:       mk,
		folder:          folder,
		publicID:        uniquePublicID(filename, kind, p.token),
		filename:        filename,
		contentType:     mf.ContentType(),
		body:            body,
		mirrorKey:       key,
		exclusive:       true,
		mirrorExclusive: st.MirrorPattern != nil && st.MirrorPattern.PerRequest(),
	}, nil
}

func mirrorKey(pattern *storageutil.PathPattern, p *plan, folder, kind, name, ext string, now time.Time) (string, error) {
	if pattern == nil {
		pattern = storageutil.DefaultMirrorPattern()
	}

	key, err := pattern.Generate(storageutil.PathValues{
		User:      p.userID,
		ID:        p.token,
		Folder:    folder,
		Kind:      kind,
		Name:      name,
		Ext:       ext,
		Timestamp: now,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build mirror key for %s: %w", kind, err)
	}

	return key, nil
}

// userFolder files uploads under <folder>/<user>; an empty user means the folder root.
func userFolder(folder, userID string) string {
	return path.Join(folder, userID)
}
