//go:build libpostal

package splitter

import (
	"sort"
	"strings"

	"github.com/address-classifier/internal/address"
	"github.com/address-classifier/internal/normalizer"
	"github.com/address-classifier/internal/parser"
	postal "github.com/openvenues/gopostal/parser"
	"go.uber.org/zap"
)

// labelLevels maps libpostal labels to the levels their value may fill.
var labelLevels = map[string]address.LevelSet{
	"state":          address.NewLevelSet(address.LevelRegion),
	"state_district": address.NewLevelSet(address.LevelDistrict),
	"city":           address.NewLevelSet(address.LevelCity, address.LevelSettlement),
	"city_district":  address.NewLevelSet(address.LevelCityArea),
	"suburb":         address.NewLevelSet(address.LevelCityArea, address.LevelSettlement, address.LevelPlanningStructure),
	"road":           address.NewLevelSet(address.LevelPlanningStructure, address.LevelStreet),
	"house_number":   address.HouseLevels,
	"unit":           address.NewLevelSet(address.LevelFlat, address.LevelRoom),
	"level":          address.NewLevelSet(address.LevelFlat, address.LevelRoom),
}

// LibpostalSplitter labels components with libpostal.
type LibpostalSplitter struct {
	logger *zap.Logger
}

func newLibpostal(logger *zap.Logger) Splitter {
	return &LibpostalSplitter{logger: logger}
}

func (s *LibpostalSplitter) Name() string { return "libpostal" }

// Split orders labelled components by their shallowest level. Unlabelled
// text falls back to a cell that may fill any level.
func (s *LibpostalSplitter) Split(text string) Result {
	var res Result
	text = normalizer.Clean(text)
	for _, c := range postal.ParseAddressOptions(text, postal.ParserOptions{Language: "ru", Country: "ru"}) {
		switch c.Label {
		case "postcode":
			res.PostalCode = strings.TrimSpace(c.Value)
			continue
		case "country":
			continue
		}
		levels, ok := labelLevels[c.Label]
		if !ok {
			levels = address.AllLevelSet
		}
		res.Cells = append(res.Cells, parser.Cell{Text: c.Value, Levels: levels})
	}
	sort.SliceStable(res.Cells, func(i, j int) bool {
		return res.Cells[i].Levels.Top() < res.Cells[j].Levels.Top()
	})
	s.logger.Debug("libpostal split", zap.Int("cells", len(res.Cells)))
	return res
}
