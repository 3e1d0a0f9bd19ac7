package places

import (
	"errors"
	"html/template"
	"io"
	"math"

	"healcure/app/config"
	"healcure/app/i18n"

	_ "embed"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
	"github.com/samber/oops"
)

//go:embed map.html.tmpl
var mapTemplateText string

var mapTemplate = template.Must(template.New("map").Parse(mapTemplateText))

var (
	ErrPermissionDenied = errors.New("location permission denied")
	ErrUnknownCategory  = errors.New("unknown place category")
)

type Category string

const (
	CategoryClinic   Category = "clinic"
	CategoryHospital Category = "hospital"
	CategoryPharmacy Category = "pharmacy"
)

var categoryKeys = map[Category]i18n.Key{
	CategoryClinic:   i18n.Clinic,
	CategoryHospital: i18n.Hospital,
	CategoryPharmacy: i18n.Pharmacy,
}

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Place is a point of interest with its name in the requested locale.
type Place struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Category Category `json:"category"`
	Label    string   `json:"label"`
}

// PositionReport is what the client knows about the device position.
type PositionReport struct {
	Denied bool
	Lat    *float64
	Lng    *float64
}

// View is everything the map widget needs.
type View struct {
	Locale  i18n.Locale `json:"locale"`
	Center  Coordinate  `json:"center"`
	Located bool        `json:"located"`
	Zoom    int         `json:"zoom"`
	Places  []Place     `json:"places"`
	Notice  string      `json:"notice,omitempty"`
}

type Service struct {
	cfg config.Map
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return &Service{cfg: cfg.Map}, nil
}

func NewWithConfig(cfg config.Map) *Service {
	return &Service{cfg: cfg}
}

// CurrentPosition resolves the device position. Without valid coordinates
// the configured default center is used and located is false.
func (s *Service) CurrentPosition(report PositionReport) (position Coordinate, located bool, err error) {
	if report.Denied {
		return Coordinate{}, false, oops.In("places").Wrap(ErrPermissionDenied)
	}

	if report.Lat == nil || report.Lng == nil || !validCoordinate(*report.Lat, 90) || !validCoordinate(*report.Lng, 180) {
		return s.defaultCenter(), false, nil
	}

	return Coordinate{Lat: *report.Lat, Lng: *report.Lng}, true, nil
}

func validCoordinate(value, limit float64) bool {
	return !math.IsNaN(value) && math.Abs(value) <= limit
}

func (s *Service) defaultCenter() Coordinate {
	return Coordinate{Lat: s.cfg.DefaultLat, Lng: s.cfg.DefaultLng}
}

// Places lists points of interest, optionally only one category.
func (s *Service) Places(locale i18n.Locale, category Category) ([]Place, error) {
	if category != "" {
		if _, ok := categoryKeys[category]; !ok {
			return nil, oops.In("places").With("category", category).Wrap(ErrUnknownCategory)
		}
	}

	filtered := pie.Filter(s.cfg.Places, func(p config.Place) bool {
		return category == "" || Category(p.Category) == category
	})

	return pie.Map(filtered, func(p config.Place) Place {
		return Place{
			ID:       p.ID,
			Name:     i18n.Text(locale, i18n.Key(p.Name)),
			Lat:      p.Lat,
			Lng:      p.Lng,
			Category: Category(p.Category),
			Label:    i18n.Text(locale, categoryKeys[Category(p.Category)]),
		}
	}), nil
}

// View builds the map state. A denied position is not an error here: the map
// falls back to the default center with a localized notice.
func (s *Service) View(locale i18n.Locale, report PositionReport, category Category) (View, error) {
	places, err := s.Places(locale, category)
	if err != nil {
		return View{}, err
	}

	view := View{
		Locale: locale,
		Zoom:   s.cfg.Zoom,
		Places: places,
	}

	center, located, err := s.CurrentPosition(report)
	if errors.Is(err, ErrPermissionDenied) {
		view.Center = s.defaultCenter()
		view.Notice = i18n.Text(locale, i18n.PermissionDenied)
		return view, nil
	}

	view.Center = center
	view.Located = located

	return view, nil
}

// Render writes the Leaflet page for view.
func (s *Service) Render(w io.Writer, view View) error {
	data := struct {
		View
		Lang         string
		Title        string
		YourLocation string
	}{
		View:         view,
		Lang:         string(view.Locale),
		Title:        i18n.Text(view.Locale, i18n.MapTitle),
		YourLocation: i18n.Text(view.Locale, i18n.YourLocation),
	}

	if err := mapTemplate.Execute(w, data); err != nil {
		return oops.In("places").Wrapf(err, "failed to render map")
	}

	return nil
}
