package source

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
)

// envPattern matches ${NAME} and ${NAME:default} occurrences inside a
// string scalar. The default may be empty.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:[^}]*)?\}`)

// ExpandEnv replaces every ${NAME} and ${NAME:default} occurrence in s with
// the process environment value for NAME. A placeholder without a default
// for an unset variable yields a MissingEnvVarError naming the variable;
// ${NAME:default} falls back to the default, which may be explicitly empty.
func ExpandEnv(s string) (string, error) {
	var expandErr error
	out := envPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envPattern.FindStringSubmatch(match)
		name := groups[1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		if groups[2] != "" {
			// The default group includes the leading colon, so an
			// explicitly empty default still matches here as ":".
			return strings.TrimPrefix(groups[2], ":")
		}
		if expandErr == nil {
			expandErr = &MissingEnvVarError{Name: name}
		}
		return match
	})
	if expandErr != nil {
		return "", expandErr
	}
	return out, nil
}

// bootstrapEnv loads dotenv files into the process environment: one from
// the current working directory and, when targetDir is non-empty, one from
// the load target's directory. Variables already present in the environment
// are never overridden; a missing dotenv file is not an error.
func bootstrapEnv(targetDir string) {
	// godotenv.Load only sets variables that are not already present.
	_ = godotenv.Load()
	if targetDir == "" {
		return
	}
	path := filepath.Join(targetDir, ".env")
	if abs, err := filepath.Abs(path); err == nil {
		if wd, err := os.Getwd(); err == nil {
			if cwdEnv, err := filepath.Abs(filepath.Join(wd, ".env")); err == nil && abs == cwdEnv {
				return
			}
		}
	}
	_ = godotenv.Load(path)
}
