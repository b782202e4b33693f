package genai

import (
	"regexp"
	"strings"
)

var (
	blockSeparator = regexp.MustCompile(`\n\s*\n`)
	leadingNumber  = regexp.MustCompile(`^\d+\.?\s*`)
	leadingBullet  = regexp.MustCompile(`^[-•]\s*`)
)

// defaultPros is used for a location listed without any pros
var defaultPros = []string{"Quiet tables", "Close to class"}

// ParseStudySpaces turns free-form model output into study spaces. Blocks are
// separated by blank lines; the first line of a block names the location
// (list numbering removed) and the remaining lines are its pros (bullets removed).
func ParseStudySpaces(text string) []StudySpace {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var spaces []StudySpace
	for _, block := range blockSeparator.Split(text, -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		var lines []string
		for _, line := range strings.Split(block, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) == 0 {
			continue
		}

		name := leadingNumber.ReplaceAllString(lines[0], "")
		if name == "" {
			continue
		}

		var pros []string
		for _, line := range lines[1:] {
			if pro := strings.TrimSpace(leadingBullet.ReplaceAllString(line, "")); pro != "" {
				pros = append(pros, pro)
			}
		}
		if len(pros) == 0 {
			pros = append([]string(nil), defaultPros...)
		}

		spaces = append(spaces, StudySpace{LocationName: name, Pros: pros})
	}
	return spaces
}
