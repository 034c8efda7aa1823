// Package parser turns one advertisement — either the JSON-ish analytics
// payload or a rendered listing page — into a canonical model.Listing
// (spec §4.1). Parsing takes ownership of the raw input and produces an
// owned value; nothing here keeps a reference back to the source bytes.
package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"

	"github.com/krisha-intel/krisha-intel/internal/model"
)

type analyticsPayload struct {
	Advert struct {
		ID          json.Number `json:"id"`
		Title       string      `json:"title"`
		Description string      `json:"description"`
		Price       string      `json:"price"`
	} `json:"advert"`
	CurrentPrice *float64 `json:"currentPrice"`
}

// ParseAnalyticsPayload parses the JSON body returned by the analytics
// endpoint (spec §6) into a Listing. flatID is supplied by the caller
// (derived from the request, not trusted from the body); kind is supplied
// by the caller based on which search surface produced flatID.
func ParseAnalyticsPayload(flatID string, raw []byte, kind model.AdvertisementKind) (model.Listing, error) {
	var payload analyticsPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return model.Listing{}, fmt.Errorf("parser: decode analytics payload: %w", err)
	}

	return fromFields(flatID, payload.Advert.Title, payload.Advert.Description, payload.Advert.Price, payload.CurrentPrice, kind)
}

// ParsePage parses a rendered listing page's DOM into a Listing. It is the
// fallback used when the analytics endpoint fails or rejects a mandatory
// field (spec §4.2).
func ParsePage(flatID string, doc *goquery.Document, kind model.AdvertisementKind) (model.Listing, error) {
	title := strings.TrimSpace(doc.Find(".offer__advert-title, h1").First().Text())
	description := strings.TrimSpace(doc.Find(".offer__description, .a-disclaimer-text, .offer__info").Text())
	priceText := strings.TrimSpace(doc.Find(".offer__price").First().Text())

	return fromFields(flatID, title, description, priceText, nil, kind)
}

func fromFields(flatID, title, description, priceText string, currentPrice *float64, kind model.AdvertisementKind) (model.Listing, error) {
	price, err := extractPrice(priceText, currentPrice)
	if err != nil {
		return model.Listing{}, err
	}

	area, err := extractArea(title, description)
	if err != nil {
		return model.Listing{}, err
	}

	floor, totalFloors := extractFloor(title, description)

	listing := model.Listing{
		FlatID:             flatID,
		IsRental:           kind == model.Rental,
		Price:              price,
		Area:               area,
		ResidentialComplex: extractComplex(description),
		Floor:              floor,
		TotalFloors:        totalFloors,
		ConstructionYear:   extractConstructionYear(description),
		Parking:            extractParking(description),
		Description:        description,
	}
	listing.FlatType = classifyFlatType(title, description, area)

	return listing, nil
}

// extractPrice prefers a numeric currentPrice; otherwise strips every
// non-digit character from priceText and parses the remainder.
func extractPrice(priceText string, currentPrice *float64) (int64, error) {
	if currentPrice != nil && *currentPrice > 0 {
		return int64(*currentPrice), nil
	}

	digits := reNonDigit.ReplaceAllString(priceText, "")
	if digits == "" {
		return 0, missingField("price")
	}
	price, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || price <= 0 {
		return 0, missingField("price")
	}
	return price, nil
}

func extractArea(title, description string) (float64, error) {
	for _, text := range []string{title, description} {
		m := reArea.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		normalized := strings.Replace(m[1], ",", ".", 1)
		area, err := strconv.ParseFloat(normalized, 64)
		if err == nil && area > 0 {
			return area, nil
		}
	}
	return 0, missingField("area")
}

func extractFloor(title, description string) (*int, *int) {
	for _, text := range []string{title, description} {
		m := reFloor.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		floor, err1 := strconv.Atoi(m[1])
		total, err2 := strconv.Atoi(m[2])
		if err1 == nil && err2 == nil {
			return &floor, &total
		}
	}
	return nil, nil
}

func extractComplex(description string) string {
	for _, re := range []*regexp.Regexp{reComplexZhilKompleks, reComplexQuoted, reComplexBare} {
		m := re.FindStringSubmatch(description)
		if m == nil {
			continue
		}
		name := cleanComplexName(m[1])
		if len(name) >= 2 && len(name) <= 80 {
			return name
		}
	}
	return ""
}

func cleanComplexName(raw string) string {
	name := reComplexTrimInLocation.ReplaceAllString(raw, "")
	name = strings.Trim(name, "\" \t\r\n")
	name = norm.NFC.String(name)
	return strings.TrimSpace(name)
}

func extractConstructionYear(description string) *int {
	maxYear := currentYear() + 5
	for _, re := range []*regexp.Regexp{reYearPostroyki, reYearPostroen, reYearSdanV, reYearBare} {
		m := re.FindStringSubmatch(description)
		if m == nil {
			continue
		}
		year, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if year >= 1900 && year <= maxYear {
			return &year
		}
	}
	return nil
}

func currentYear() int {
	return time.Now().UTC().Year()
}

func extractParking(description string) string {
	lower := strings.ToLower(description)
	for _, kw := range parkingKeywords {
		if strings.Contains(lower, kw) {
			return kw
		}
	}
	return ""
}

// classifyFlatType applies the ordered, mutually exclusive rules from spec
// §4.1: explicit "студия", then a room count, then an area-based fallback.
func classifyFlatType(title, description string, area float64) model.FlatType {
	for _, text := range []string{title, description} {
		if reStudio.MatchString(text) {
			return model.Studio
		}
	}
	for _, text := range []string{title, description} {
		m := reRooms.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		rooms, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		switch {
		case rooms == 1:
			return model.OneBedroom
		case rooms == 2:
			return model.TwoBedroom
		default:
			return model.ThreePlusBR
		}
	}

	switch {
	case area <= 30:
		return model.Studio
	case area <= 50:
		return model.OneBedroom
	case area <= 80:
		return model.TwoBedroom
	default:
		return model.ThreePlusBR
	}
}
