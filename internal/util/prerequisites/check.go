// Package prerequisites verifies that the client tools a workflow shells
// out to are installed before any phase runs.
package prerequisites

import (
	"fmt"
	"os/exec"
	"strings"
)

// Tool is one binary a workflow needs on PATH.
type Tool struct {
	// Name is the binary name to look for in PATH.
	Name string

	// Description explains what the tool is used for.
	Description string

	// InstallURL points at installation instructions.
	InstallURL string
}

// IaCTool describes the infrastructure-as-code binary named in the
// configuration. Only workflows with the infrastructure phase enabled need
// it.
func IaCTool(binary string) Tool {
	url := "https://opentofu.org/docs/intro/install/"
	if binary == "terraform" {
		url = "https://developer.hashicorp.com/terraform/install"
	}
	return Tool{
		Name:        binary,
		Description: "Required for the infrastructure phase (apply/destroy of the cluster's cloud resources)",
		InstallURL:  url,
	}
}

// Result records where a tool was found.
type Result struct {
	Tool  Tool
	Found bool
	Path  string
}

// Check looks each tool up in PATH.
func Check(tools []Tool) []Result {
	results := make([]Result, 0, len(tools))
	for _, tool := range tools {
		path, err := exec.LookPath(tool.Name)
		results = append(results, Result{
			Tool:  tool,
			Found: err == nil,
			Path:  path,
		})
	}
	return results
}

// Verify checks the tools and returns an error naming every missing one
// with an install pointer. A nil error means everything is present.
func Verify(tools []Tool) error {
	var missing []string
	for _, r := range Check(tools) {
		if !r.Found {
			missing = append(missing, fmt.Sprintf("%s: %s (install: %s)", r.Tool.Name, r.Tool.Description, r.Tool.InstallURL))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required tools:\n  %s", strings.Join(missing, "\n  "))
	}
	return nil
}
