package parser

import "regexp"

// All parsing regexes are compiled once at package init, never per call
// (spec Design Notes §9 "Regex compilation").
var (
	reArea  = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*м²`)
	reFloor = regexp.MustCompile(`(\d+)\s*/\s*(\d+)\s*этаж`)

	// Residential complex patterns, checked in this order; the first match wins.
	reComplexZhilKompleks = regexp.MustCompile(`(?i)жил\.?\s*комплекс\s+([^,.\n]{1,120})`)
	reComplexQuoted       = regexp.MustCompile(`(?i)ЖК\s*"([^"]{1,120})"`)
	reComplexBare         = regexp.MustCompile(`(?i)ЖК\s+([^,.\n"]{1,120})`)

	reComplexTrimInLocation = regexp.MustCompile(`(?i)\s+в\s+.*$`)

	// Construction year patterns, checked in this order; the first match wins.
	reYearPostroyki  = regexp.MustCompile(`(?i)год\s+постройки\s+(\d{4})`)
	reYearPostroen   = regexp.MustCompile(`(?i)построен[оа]?\s+(\d{4})`)
	reYearSdanV      = regexp.MustCompile(`(?i)сдан\s+в\s+(\d{4})`)
	reYearBare       = regexp.MustCompile(`(\d{4})\s*г\.`)

	reRooms  = regexp.MustCompile(`(?i)(\d+)\s*[-–]?\s*комнатн`)
	reStudio = regexp.MustCompile(`(?i)студи`)

	// Digits-only scrubber used for price extraction.
	reNonDigit = regexp.MustCompile(`[^\d]`)
)

// parkingKeywords are checked in order; the first substring match (case
// insensitive, after lower-casing) is the canonical label returned.
var parkingKeywords = []string{
	"подземная парковка",
	"наземная парковка",
	"охраняемая стоянка",
	"парковка",
}
