package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
)

const (
	executableDir   = ".ci"
	versionPathName = "version_path"
	versionFileName = "version"
	defaultVersion  = "VERSION"
)

// clone is a read-only checkout copied into a writable output before the step runs.
type clone struct {
	Source      string
	Destination string
}

// script collects everything the step body needs. Bodies are generated for both
// interpreters from the same data so they stay behaviorally equivalent.
type script struct {
	Executable string
	Args       []string
	MainDir    string
	Clones     []clone
	// ReadVersion makes the effective version available as EFFECTIVE_VERSION.
	ReadVersion bool
	// VersionFile, when set, receives the effective version inside MainDir.
	VersionFile string
	GitUser     string
	GitEmail    string
	// Library replaces the executable lookup with a step library body.
	Library string
	// Synthetic steps without a library body only get the working directory setup.
	Synthetic bool
}

func (s script) placeholder() bool {
	return s.Synthetic && s.Library == ""
}

func pyString(s string) string {
	return strconv.Quote(s)
}

func pyList(items []string) string {
	quoted := make([]string, 0, len(items))
	for _, i := range items {
		quoted = append(quoted, pyString(i))
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func (s script) python() string {
	var b strings.Builder
	b.WriteString("import os\nimport pathlib\nimport shutil\nimport subprocess\nimport sys\n\n")
	b.WriteString("os.environ['CC_ROOT_DIR'] = os.path.abspath('.')\n")
	if s.placeholder() {
		return b.String()
	}
	if s.ReadVersion {
		fmt.Fprintf(&b, "with open(os.path.join(%s, %s)) as f:\n    effective_version = f.read().strip()\n",
			pyString(versionPathName), pyString(versionFileName))
		b.WriteString("os.environ['EFFECTIVE_VERSION'] = effective_version\n")
		if s.VersionFile != "" {
			fmt.Fprintf(&b, "with open(os.path.join(%s, %s), 'w') as f:\n    f.write(effective_version)\n",
				pyString(s.MainDir), pyString(s.VersionFile))
		}
	}
	for _, c := range s.Clones {
		fmt.Fprintf(&b, "shutil.copytree(%s, %s, symlinks=True, dirs_exist_ok=True)\n", pyString(c.Source), pyString(c.Destination))
		if s.GitUser != "" {
			fmt.Fprintf(&b, "subprocess.run(['git', 'config', 'user.name', %s], cwd=%s, check=True)\n", pyString(s.GitUser), pyString(c.Destination))
		}
		if s.GitEmail != "" {
			fmt.Fprintf(&b, "subprocess.run(['git', 'config', 'user.email', %s], cwd=%s, check=True)\n", pyString(s.GitEmail), pyString(c.Destination))
		}
	}
	b.WriteString("try:\n")
	fmt.Fprintf(&b, "    os.environ['MAIN_REPO_DIR'] = str(pathlib.Path(%s).resolve(strict=True))\n", pyString(s.MainDir))
	b.WriteString("except (FileNotFoundError, RuntimeError) as e:\n")
	b.WriteString("    print(f'warning: could not resolve main repository directory: {e}', file=sys.stderr)\n")
	if s.Library != "" {
		b.WriteString(s.Library)
		if !strings.HasSuffix(s.Library, "\n") {
			b.WriteString("\n")
		}
		return b.String()
	}
	fmt.Fprintf(&b, "executable = %s\n", pyString(s.Executable))
	b.WriteString("if os.access(executable, os.X_OK):\n")
	fmt.Fprintf(&b, "    completed = subprocess.run([executable] + %s)\n", pyList(s.Args))
	b.WriteString("    sys.exit(completed.returncode)\n")
	b.WriteString("elif os.path.isfile(executable):\n")
	b.WriteString("    print(f'error: {executable} is not executable', file=sys.stderr)\n")
	b.WriteString("    sys.exit(1)\n")
	b.WriteString("else:\n")
	b.WriteString("    print(f'error: no executable found at {executable}', file=sys.stderr)\n")
	b.WriteString("    sys.exit(1)\n")
	return b.String()
}

func (s script) shell() string {
	q := func(w string) string { return shellquote.Join(w) }
	var b strings.Builder
	b.WriteString("set -eu\n")
	b.WriteString("export CC_ROOT_DIR=\"$(pwd)\"\n")
	if s.placeholder() {
		return b.String()
	}
	if s.ReadVersion {
		fmt.Fprintf(&b, "EFFECTIVE_VERSION=\"$(cat %s)\"\nexport EFFECTIVE_VERSION\n", q(versionPathName+"/"+versionFileName))
		if s.VersionFile != "" {
			fmt.Fprintf(&b, "printf '%%s' \"$EFFECTIVE_VERSION\" > %s\n", q(s.MainDir+"/"+s.VersionFile))
		}
	}
	for _, c := range s.Clones {
		fmt.Fprintf(&b, "mkdir -p %s\ncp -a %s %s\n", q(c.Destination), q(c.Source+"/."), q(c.Destination+"/"))
		if s.GitUser != "" {
			fmt.Fprintf(&b, "git -C %s config user.name %s\n", q(c.Destination), q(s.GitUser))
		}
		if s.GitEmail != "" {
			fmt.Fprintf(&b, "git -C %s config user.email %s\n", q(c.Destination), q(s.GitEmail))
		}
	}
	fmt.Fprintf(&b, "if MAIN_REPO_DIR=\"$(cd %s 2>/dev/null && pwd -P)\"; then\n", q(s.MainDir))
	b.WriteString("  export MAIN_REPO_DIR\n")
	b.WriteString("else\n")
	b.WriteString("  echo 'warning: could not resolve main repository directory' >&2\n")
	b.WriteString("fi\n")
	fmt.Fprintf(&b, "executable=%s\n", q(s.Executable))
	b.WriteString("if [ -x \"$executable\" ]; then\n")
	if len(s.Args) > 0 {
		fmt.Fprintf(&b, "  exec \"$executable\" %s\n", shellquote.Join(s.Args...))
	} else {
		b.WriteString("  exec \"$executable\"\n")
	}
	b.WriteString("elif [ -f \"$executable\" ]; then\n")
	b.WriteString("  echo \"error: $executable is not executable\" >&2\n")
	b.WriteString("  exit 1\n")
	b.WriteString("else\n")
	b.WriteString("  echo \"error: no executable found at $executable\" >&2\n")
	b.WriteString("  exit 1\n")
	b.WriteString("fi\n")
	return b.String()
}
