// Package secrets implements the two leak-prevention gates: a filename gate
// run over the candidate file list before any model interaction, and a
// content gate run over diff text immediately before it would be sent to
// the model. Both are fatal unless a bypass is explicitly confirmed.
package secrets

import (
	"os"
	"path"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	scerrors "smartcommit/internal/errors"
	"smartcommit/internal/types"
)

// filenameGlobs is the fixed list of leak-prone filename patterns, matched
// against the path base name.
var filenameGlobs = []string{
	".env",
	".env.*",
	"*.pem",
	"*.key",
	"*.p12",
	"*.pfx",
	"*.ppk",
	"*.keystore",
	"*.jks",
	"id_rsa*",
	"id_dsa*",
	"id_ed25519*",
	"*_rsa",
	"*_dsa",
	"*_ed25519",
	"credentials.json",
	"credentials",
	"service-account*.json",
	"kubeconfig",
	"*.kubeconfig",
	"*.tfstate",
	"*.tfstate.*",
	"secret*",
	"*.secret",
	".netrc",
	".htpasswd",
	".npmrc",
	".pypirc",
}

type contentPattern struct {
	name string
	re   *regexp.Regexp
}

// builtinContentPatterns covers common API-key/token shapes, cloud-provider
// key formats, private-key material, and literal credential assignment.
var builtinContentPatterns = []contentPattern{
	{"aws-access-key-id", regexp.MustCompile(`\b(AKIA|ASIA)[0-9A-Z]{16}\b`)},
	{"github-token", regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36,}\b`)},
	{"slack-token", regexp.MustCompile(`\bxox[baprs]-[A-Za-z0-9-]{10,}\b`)},
	{"google-api-key", regexp.MustCompile(`\bAIza[0-9A-Za-z_-]{35}\b`)},
	{"stripe-key", regexp.MustCompile(`\b[sr]k_(live|test)_[A-Za-z0-9]{20,}\b`)},
	{"private-key-pem", regexp.MustCompile(`-----BEGIN (RSA |DSA |EC |OPENSSH |PGP )?PRIVATE KEY( BLOCK)?-----`)},
	{"jwt", regexp.MustCompile(`\beyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}\b`)},
	{"credential-assignment", regexp.MustCompile(`(?i)\b(api[_-]?key|api[_-]?token|access[_-]?token|auth[_-]?token|secret[_-]?key|client[_-]?secret|password|passwd)\b\s*[:=]\s*["'][^"']{8,}["']`)},
}

// userPatternFile is the YAML shape of a user-supplied pattern list.
type userPatternFile struct {
	Patterns []struct {
		Name  string `yaml:"name"`
		Regex string `yaml:"regex"`
	} `yaml:"patterns"`
}

// Detector runs the filename and content gates.
type Detector struct {
	content []contentPattern
	log     *zap.Logger
}

// NewDetector creates a Detector with the builtin pattern set.
func NewDetector(log *zap.Logger) *Detector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Detector{content: builtinContentPatterns, log: log}
}

// LoadUserPatterns appends content patterns from a YAML file. A missing file
// is not an error; a bad regex is, so a typo never silently disables a gate.
func (d *Detector) LoadUserPatterns(file string) error {
	data, err := os.ReadFile(file)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return scerrors.Wrapf(err, "read secret patterns %s", file)
	}
	var parsed userPatternFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return scerrors.Wrapf(err, "parse secret patterns %s", file)
	}
	for _, p := range parsed.Patterns {
		re, err := regexp.Compile(p.Regex)
		if err != nil {
			return scerrors.Wrapf(err, "secret pattern %q", p.Name)
		}
		d.content = append(d.content, contentPattern{name: p.Name, re: re})
	}
	return nil
}

// CheckFilenames returns a match for every candidate file whose base name
// hits a leak-prone glob.
func (d *Detector) CheckFilenames(files []string) []types.SecretMatch {
	var matches []types.SecretMatch
	for _, f := range files {
		base := path.Base(f)
		for _, glob := range filenameGlobs {
			ok, err := path.Match(glob, base)
			if err != nil || !ok {
				continue
			}
			matches = append(matches, types.SecretMatch{
				File:        f,
				Line:        1,
				Column:      1,
				Pattern:     glob,
				PatternName: "filename:" + glob,
				Snippet:     base,
				MatchedText: base,
			})
			break
		}
	}
	return matches
}

// CheckContent scans diff text for secret-shaped content, capturing exact
// 1-based line/column positions and a snippet of the offending line. For
// unified diffs only introduced (+) lines are scanned; raw content from the
// untracked fallback is scanned whole.
func (d *Detector) CheckContent(file, diff string) []types.SecretMatch {
	isDiff := strings.HasPrefix(diff, "diff --git") || strings.Contains(diff, "\n@@")
	var matches []types.SecretMatch
	for lineNo, line := range strings.Split(diff, "\n") {
		if isDiff && (!strings.HasPrefix(line, "+") || strings.HasPrefix(line, "+++")) {
			continue
		}
		for _, p := range d.content {
			loc := p.re.FindStringIndex(line)
			if loc == nil {
				continue
			}
			matches = append(matches, types.SecretMatch{
				File:        file,
				Line:        lineNo + 1,
				Column:      loc[0] + 1,
				Pattern:     p.re.String(),
				PatternName: p.name,
				Snippet:     snippet(line),
				MatchedText: line[loc[0]:loc[1]],
			})
		}
	}
	return matches
}

func snippet(line string) string {
	const max = 120
	line = strings.TrimSpace(line)
	if len(line) > max {
		return line[:max] + "..."
	}
	return line
}

// BypassOptions controls what happens when a gate finds matches.
type BypassOptions struct {
	// Bypass requests continuing despite matches. Without it any match is
	// fatal.
	Bypass bool
	// AutoConfirm answers the confirmation prompt with yes, for
	// non-interactive runs.
	AutoConfirm bool
	// Confirm is the interactive yes/no primitive. Ignored when AutoConfirm
	// is set.
	Confirm types.Confirmer
}

// Gate turns matches into the fatal SecretsDetectedError, or clears them via
// the explicit bypass confirmation. A confirmed override is logged with a
// timestamp. The returned error carries every match and must propagate
// through retry and fallback logic untouched.
func (d *Detector) Gate(matches []types.SecretMatch, opts BypassOptions) error {
	if len(matches) == 0 {
		return nil
	}
	if !opts.Bypass {
		return scerrors.NewSecretsDetected(matches)
	}

	confirmed := opts.AutoConfirm
	if !confirmed && opts.Confirm != nil {
		confirmed = opts.Confirm.Confirm(
			"Potential secrets detected. Continue anyway and send the material to the model?")
	}
	if !confirmed {
		return scerrors.NewSecretsDetected(matches)
	}

	d.log.Warn("secrets gate bypassed by explicit override",
		zap.Time("at", time.Now()),
		zap.Int("matches", len(matches)),
		zap.Bool("auto_confirm", opts.AutoConfirm))
	return nil
}
