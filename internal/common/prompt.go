package common

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"careermatch/internal/types"
)

// SkillPrompter asks for skill ratings on a line-oriented terminal.
type SkillPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewSkillPrompter reads answers from in and writes prompts to out.
func NewSkillPrompter(in io.Reader, out io.Writer) *SkillPrompter {
	return &SkillPrompter{in: bufio.NewReader(in), out: out}
}

// AskLine prints label and returns the trimmed answer. A last line without a
// trailing newline is accepted; io.EOF is returned once input is exhausted.
func (p *SkillPrompter) AskLine(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.in.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Ask reads a level for skill, re-asking until the answer is empty (0) or an
// integer within the accepted range.
func (p *SkillPrompter) Ask(skill string) (int, error) {
	label := fmt.Sprintf("%s (%d-%d, ENTER=0): ", skill, types.MinSkillLevel, types.MaxSkillLevel)
	for {
		answer, err := p.AskLine(label)
		if err != nil {
			return 0, err
		}
		if answer == "" {
			return 0, nil
		}
		level, err := strconv.Atoi(answer)
		if err == nil && level >= types.MinSkillLevel && level <= types.MaxSkillLevel {
			return level, nil
		}
		fmt.Fprintf(p.out, "Invalid input. Enter an integer between %d and %d.\n", types.MinSkillLevel, types.MaxSkillLevel)
	}
}

// AskAll rates every skill in order.
func (p *SkillPrompter) AskAll(skills []string) (map[string]int, error) {
	levels := make(map[string]int, len(skills))
	for _, skill := range skills {
		level, err := p.Ask(skill)
		if err != nil {
			return nil, err
		}
		levels[skill] = level
	}
	return levels, nil
}

// Confirm asks a yes/no question; only "y" or "yes" count as yes.
func (p *SkillPrompter) Confirm(label string) (bool, error) {
	answer, err := p.AskLine(label + " (y/N): ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes", "s", "sim":
		return true, nil
	}
	return false, nil
}
