package readme

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/datawire/dlib/derror"
)

// Bucket is the set of apps a bucket provides.
type Bucket interface {
	HasApp(name string) bool
}

// DirBucket is a bucket directory of <app>.json manifests.  App names are case-insensitive,
// as they are to Scoop.
type DirBucket string

func (d DirBucket) HasApp(name string) bool {
	entries, err := os.ReadDir(string(d))
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		if strings.EqualFold(strings.TrimSuffix(entry.Name(), ".json"), name) {
			return true
		}
	}
	return false
}

type CommandRules struct {
	Bucket Bucket
	// RepoURL, if set, is the URL that `scoop bucket add` must register.
	RepoURL string
}

//nolint:gochecknoglobals // Would be 'const'.
var (
	reName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

	scoopSubcommands = map[string]struct{}{
		"alias": {}, "bucket": {}, "cache": {}, "cat": {}, "checkup": {}, "cleanup": {},
		"config": {}, "depends": {}, "download": {}, "export": {}, "help": {}, "hold": {},
		"home": {}, "import": {}, "info": {}, "install": {}, "list": {}, "prefix": {},
		"reset": {}, "search": {}, "shim": {}, "status": {}, "unhold": {}, "uninstall": {},
		"update": {}, "virustotal": {}, "which": {},
	}
)

// CheckCommands verifies every `scoop ...` line in the README.  There must be at least one
// `scoop bucket add` and one `scoop install`, and installs must name apps in the bucket.
func CheckCommands(doc *Document, rules CommandRules) error {
	var errs derror.MultiError
	buckets := make(map[string]string)
	var installs [][]string
	for _, line := range doc.Commands {
		args, err := splitWords(line)
		if err != nil {
			errs = append(errs, fmt.Errorf("command %q: %w", line, err))
			continue
		}
		if len(args) == 0 || args[0] != "scoop" {
			continue
		}
		if len(args) < 2 {
			errs = append(errs, fmt.Errorf("command %q: missing subcommand", line))
			continue
		}
		if _, ok := scoopSubcommands[args[1]]; !ok {
			errs = append(errs, fmt.Errorf("command %q: unknown scoop subcommand %q", line, args[1]))
			continue
		}
		switch {
		case args[1] == "bucket" && len(args) > 2 && args[2] == "add":
			name, err := checkBucketAdd(args[3:], rules.RepoURL)
			if err != nil {
				errs = append(errs, fmt.Errorf("command %q: %w", line, err))
				continue
			}
			buckets[strings.ToLower(name)] = line
		case args[1] == "install":
			installs = append(installs, args)
		}
	}

	// Installs are checked after all the adds, so that the README may list them in either
	// order.
	for _, args := range installs {
		line := strings.Join(args, " ")
		for _, err := range checkInstall(args[2:], buckets, rules.Bucket) {
			errs = append(errs, fmt.Errorf("command %q: %w", line, err))
		}
	}

	if len(buckets) == 0 {
		errs = append(errs, fmt.Errorf("no `scoop bucket add` command found"))
	}
	if len(installs) == 0 {
		errs = append(errs, fmt.Errorf("no `scoop install` command found"))
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func checkBucketAdd(args []string, repoURL string) (string, error) {
	if len(args) < 1 || len(args) > 2 {
		return "", fmt.Errorf("usage: scoop bucket add <name> [<repo>]")
	}
	name := args[0]
	if !reName.MatchString(name) {
		return "", fmt.Errorf("invalid bucket name %q", name)
	}
	if len(args) == 1 {
		// Scoop only knows the URL of its own official buckets.
		if repoURL != "" {
			return "", fmt.Errorf("bucket %q is added without a repository URL", name)
		}
		return name, nil
	}
	u, err := url.Parse(args[1])
	if err != nil {
		return "", err
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return "", fmt.Errorf("repository %q: scheme must be http or https", args[1])
	}
	if repoURL != "" && normalizeRepoURL(args[1]) != normalizeRepoURL(repoURL) {
		return "", fmt.Errorf("repository %q is not this bucket (%s)", args[1], repoURL)
	}
	return name, nil
}

func normalizeRepoURL(str string) string {
	str = strings.ToLower(strings.TrimSpace(str))
	str = strings.TrimSuffix(str, "/")
	str = strings.TrimSuffix(str, ".git")
	return strings.TrimPrefix(strings.TrimPrefix(str, "https://"), "http://")
}

func checkInstall(args []string, buckets map[string]string, bucket Bucket) []error {
	var errs []error
	apps := 0
	for _, arg := range args {
		if strings.HasPrefix(arg, "-") {
			continue
		}
		apps++
		app := arg
		if i := strings.LastIndexByte(app, '@'); i > 0 {
			app = app[:i]
		}
		if i := strings.IndexByte(app, '/'); i >= 0 {
			bucketName := app[:i]
			app = app[i+1:]
			if _, ok := buckets[strings.ToLower(bucketName)]; !ok {
				errs = append(errs, fmt.Errorf("bucket %q is never added", bucketName))
				continue
			}
		}
		if !reName.MatchString(app) {
			errs = append(errs, fmt.Errorf("invalid app name %q", app))
			continue
		}
		if bucket != nil && !bucket.HasApp(app) {
			errs = append(errs, fmt.Errorf("app %q has no manifest in the bucket", app))
		}
	}
	if apps == 0 {
		errs = append(errs, fmt.Errorf("usage: scoop install <app>..."))
	}
	return errs
}

// splitWords splits a command line into words, honoring single and double quotes the way
// PowerShell does for plain arguments.
func splitWords(line string) ([]string, error) {
	var (
		words  []string
		cur    strings.Builder
		inWord bool
		quote  rune
	)
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inWord = true
		case r == ' ' || r == '\t':
			if inWord {
				words = append(words, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if inWord {
		words = append(words, cur.String())
	}
	return words, nil
}
