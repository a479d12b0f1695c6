package content

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/kailas-cloud/ekn/internal/domain"
)

// maxDurationSecs is the longest duration time.Duration can hold, in seconds.
const maxDurationSecs = float64(math.MaxInt64 / int64(time.Second))

var (
	isoDurationRe  = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?$`)
	errBadDuration = errors.New("not seconds or an ISO 8601 PT#H#M#S duration")
)

type media struct {
	caption         string
	width           int
	height          int
	copyrightHolder string
}

func parseMedia(p Properties) (media, error) {
	var (
		m   media
		err error
	)
	if m.caption, err = p.String("caption"); err != nil {
		return media{}, err
	}
	if m.width, err = p.Count("width"); err != nil {
		return media{}, err
	}
	if m.height, err = p.Count("height"); err != nil {
		return media{}, err
	}
	if m.copyrightHolder, err = p.String("copyrightHolder"); err != nil {
		return media{}, err
	}
	return m, nil
}

func (m media) Caption() string         { return m.caption }
func (m media) Width() int              { return m.width }
func (m media) Height() int             { return m.height }
func (m media) CopyrightHolder() string { return m.copyrightHolder }

// Image is a still image model.
type Image struct {
	*Content
	media
}

func newImage(p Properties, c *Content) (Model, error) {
	m, err := parseMedia(p)
	if err != nil {
		return nil, err
	}
	return &Image{Content: c, media: m}, nil
}

// Video is a video model.
type Video struct {
	*Content
	media
	duration   time.Duration
	transcript string
	poster     string
}

func newVideo(p Properties, c *Content) (Model, error) {
	m, err := parseMedia(p)
	if err != nil {
		return nil, err
	}
	v := &Video{Content: c, media: m}
	if v.duration, err = parseDuration(p["duration"]); err != nil {
		return nil, domain.InvalidProperty("duration", err)
	}
	if v.transcript, err = p.String("transcript"); err != nil {
		return nil, err
	}
	if v.poster, err = p.String("poster"); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Video) Duration() time.Duration { return v.duration }
func (v *Video) Transcript() string      { return v.transcript }

// Poster returns the identifier of the poster frame image.
func (v *Video) Poster() string { return v.poster }

func parseDuration(v any) (time.Duration, error) {
	var secs float64
	switch d := v.(type) {
	case nil:
		return 0, nil
	case string:
		if d == "" {
			return 0, nil
		}
		if f, err := strconv.ParseFloat(d, 64); err == nil {
			secs = f
			break
		}
		m := isoDurationRe.FindStringSubmatch(d)
		if m == nil || d == "PT" {
			return 0, errBadDuration
		}
		h, _ := strconv.ParseFloat(orZero(m[1]), 64)
		mins, _ := strconv.ParseFloat(orZero(m[2]), 64)
		s, _ := strconv.ParseFloat(orZero(m[3]), 64)
		secs = h*3600 + mins*60 + s
	default:
		n, err := toFloat(v)
		if err != nil {
			return 0, errBadDuration
		}
		secs = n
	}
	if math.IsNaN(secs) || math.IsInf(secs, 0) || secs > maxDurationSecs {
		return 0, errBadDuration
	}
	if secs < 0 {
		return 0, errNegative
	}
	return time.Duration(secs * float64(time.Second)), nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case interface{ Float64() (float64, error) }:
		return n.Float64()
	case float64:
		return n, nil
	default:
		return 0, errNotInteger
	}
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
