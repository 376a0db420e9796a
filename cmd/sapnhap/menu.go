package main

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/fwojciec/sapnhap"
	"github.com/fwojciec/sapnhap/crawl"
)

// Defaults offered by the menu prompts.
const (
	DefaultMenuProvinces = 5
	DefaultKnownFile     = "known.toml"
)

const menuText = `Choose a mode:
  1. Quick sample (3 provinces, 5 communes each)
  2. Known province list
  3. Full auto-discovery
  4. Limited auto-discovery
  5. Retry from latest error log
`

// Run executes the menu command.
func (c *MenuCmd) Run(deps *Dependencies) error {
	in := bufio.NewScanner(deps.Stdin)
	fmt.Fprint(deps.Stdout, menuText)

	switch choice := prompt(in, deps, "Choice [1-5]: ", ""); choice {
	case "1":
		return (&SampleCmd{}).Run(deps)
	case "2":
		file := prompt(in, deps, fmt.Sprintf("Known list file [%s]: ", DefaultKnownFile), DefaultKnownFile)
		return (&KnownCmd{File: file}).Run(deps)
	case "3":
		return (&CrawlCmd{}).Run(deps)
	case "4":
		answer := prompt(in, deps, fmt.Sprintf("Number of provinces [%d]: ", DefaultMenuProvinces), strconv.Itoa(DefaultMenuProvinces))
		n, err := strconv.Atoi(answer)
		if err != nil || n <= 0 {
			return sapnhap.Errorf(sapnhap.EINVALID, "invalid number of provinces %q", answer)
		}
		return deps.crawl(crawl.Scope{MaxProvinces: n})
	case "5":
		return (&RetryCmd{}).Run(deps)
	default:
		return sapnhap.Errorf(sapnhap.EINVALID, "invalid choice %q", choice)
	}
}

// prompt reads one trimmed line, returning def for an empty answer or end
// of input.
func prompt(in *bufio.Scanner, deps *Dependencies, text, def string) string {
	fmt.Fprint(deps.Stdout, text)
	if !in.Scan() {
		return def
	}
	if answer := strings.TrimSpace(in.Text()); answer != "" {
		return answer
	}
	return def
}
