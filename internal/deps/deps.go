package deps

import (
	"os/exec"
	"strings"
)

// Tool is an external program whisperclip may shell out to.
type Tool struct {
	Name        string
	VersionArgs []string
	Purpose     string
}

var (
	WhisperCli = Tool{Name: "whisper-cli", VersionArgs: []string{"--version"}, Purpose: "model.backend = \"whispercli\""}
	PwRecord   = Tool{Name: "pw-record", VersionArgs: []string{"--version"}, Purpose: "recording.source = \"pipewire\""}
	WlCopy     = Tool{Name: "wl-copy", VersionArgs: []string{"--version"}, Purpose: "injection backend \"wl-copy\""}
	Paplay     = Tool{Name: "paplay", VersionArgs: []string{"--version"}, Purpose: "notifications.type = \"sound\""}
)

// Status represents the installation status of a dependency
type Status struct {
	Tool      Tool
	Installed bool
	Path      string
	Version   string
}

type lookupFunc func(string) (string, error)

type versionFunc func(path string, args ...string) ([]byte, error)

func runVersion(path string, args ...string) ([]byte, error) {
	return exec.Command(path, args...).Output()
}

// Check reports whether tool is in PATH and, if so, its version.
func Check(tool Tool) Status {
	return check(tool, exec.LookPath, runVersion)
}

func check(tool Tool, lookPath lookupFunc, version versionFunc) Status {
	path, err := lookPath(tool.Name)
	if err != nil {
		return Status{Tool: tool}
	}

	status := Status{
		Tool:      tool,
		Installed: true,
		Path:      path,
	}

	// first line of the version output is enough
	output, err := version(path, tool.VersionArgs...)
	if err == nil {
		status.Version = firstLine(string(output))
	}

	return status
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}

// Setup is the part of the configuration that decides which tools matter.
type Setup struct {
	Source            string
	Backend           string
	InjectionBackends []string
	Notification      string
}

// Required lists the tools the given setup will run.
func Required(s Setup) []Tool {
	var tools []Tool
	if s.Source == "pipewire" {
		tools = append(tools, PwRecord)
	}
	if s.Backend == "whispercli" {
		tools = append(tools, WhisperCli)
	}
	for _, b := range s.InjectionBackends {
		if b == "wl-copy" {
			tools = append(tools, WlCopy)
			break
		}
	}
	if s.Notification == "sound" {
		tools = append(tools, Paplay)
	}
	return tools
}

// CheckAll checks every tool in order.
func CheckAll(tools []Tool) []Status {
	statuses := make([]Status, 0, len(tools))
	for _, t := range tools {
		statuses = append(statuses, Check(t))
	}
	return statuses
}
