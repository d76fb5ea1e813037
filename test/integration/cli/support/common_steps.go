package support

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/docscan/internal/utils"
	"github.com/cucumber/godog"
	"github.com/spf13/cast"
)

// iRunCommand runs a docscan command line. The leading "docscan" is optional.
func (testCtx *TestContext) iRunCommand(command string) error {
	command = testCtx.substitute(command)
	testCtx.LastCommand = command

	args, err := splitArgs(command)
	if err != nil {
		return err
	}
	if len(args) > 0 && args[0] == "docscan" {
		args = args[1:]
	}
	testCtx.run(args)
	return nil
}

// splitArgs splits on spaces and honors single quotes.
func splitArgs(s string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inQuote bool
		hasArg  bool
	)
	for _, r := range s {
		switch {
		case r == '\'':
			inQuote = !inQuote
			hasArg = true
		case r == ' ' && !inQuote:
			if hasArg {
				args = append(args, cur.String())
				cur.Reset()
				hasArg = false
			}
		default:
			cur.WriteRune(r)
			hasArg = true
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote in %q", s)
	}
	if hasArg {
		args = append(args, cur.String())
	}
	return args, nil
}

func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastError != nil {
		return fmt.Errorf("command %q failed: %w\nstdout: %s\nstderr: %s",
			testCtx.LastCommand, testCtx.LastError, testCtx.LastOutput, testCtx.LastStderr)
	}
	return nil
}

func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastError == nil {
		return fmt.Errorf("command %q succeeded when it should have failed\nOutput: %s",
			testCtx.LastCommand, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldContain(text string) error {
	text = testCtx.substitute(text)
	if !strings.Contains(testCtx.LastOutput, text) {
		return fmt.Errorf("output does not contain %q\nOutput: %s", text, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theErrorShouldMention(text string) error {
	if testCtx.LastError == nil {
		return errors.New("expected an error")
	}
	if !strings.Contains(strings.ToLower(testCtx.LastError.Error()), strings.ToLower(text)) {
		return fmt.Errorf("error %q does not mention %q", testCtx.LastError, text)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	if !json.Valid([]byte(testCtx.LastOutput)) {
		return fmt.Errorf("output is not valid JSON: %s", testCtx.LastOutput)
	}
	return nil
}

// jsonField walks a dotted path ("corners.0.x") through the JSON output.
func (testCtx *TestContext) jsonField(path string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(testCtx.LastOutput), &v); err != nil {
		return nil, fmt.Errorf("output is not valid JSON: %w", err)
	}
	for _, key := range strings.Split(path, ".") {
		switch node := v.(type) {
		case map[string]any:
			child, ok := node[key]
			if !ok {
				return nil, fmt.Errorf("JSON field %q not found", path)
			}
			v = child
		case []any:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("JSON index %q out of range in %q", key, path)
			}
			v = node[i]
		default:
			return nil, fmt.Errorf("JSON field %q not found", path)
		}
	}
	return v, nil
}

func (testCtx *TestContext) theJSONFieldShouldBe(path, want string) error {
	v, err := testCtx.jsonField(path)
	if err != nil {
		return err
	}
	if got := cast.ToString(v); got != want {
		return fmt.Errorf("JSON field %q is %q, want %q", path, got, want)
	}
	return nil
}

func (testCtx *TestContext) theJSONFieldShouldBeAtLeast(path string, min float64) error {
	v, err := testCtx.jsonField(path)
	if err != nil {
		return err
	}
	got, err := cast.ToFloat64E(v)
	if err != nil {
		return fmt.Errorf("JSON field %q is not a number: %w", path, err)
	}
	if got < min {
		return fmt.Errorf("JSON field %q is %v, want at least %v", path, got, min)
	}
	return nil
}

func (testCtx *TestContext) theJSONFieldShouldHaveItems(path string, n int) error {
	v, err := testCtx.jsonField(path)
	if err != nil {
		return err
	}
	items, err := cast.ToSliceE(v)
	if err != nil {
		return fmt.Errorf("JSON field %q is not an array", path)
	}
	if len(items) != n {
		return fmt.Errorf("JSON field %q has %d items, want %d", path, len(items), n)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldExist(name string) error {
	if _, err := os.Stat(testCtx.path(name)); err != nil {
		return fmt.Errorf("file %s does not exist: %w", name, err)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldContain(name, text string) error {
	data, err := os.ReadFile(testCtx.path(name))
	if err != nil {
		return err
	}
	if !strings.Contains(string(data), text) {
		return fmt.Errorf("file %s does not contain %q", name, text)
	}
	return nil
}

func (testCtx *TestContext) theImageShouldHaveSize(name string, width, height int) error {
	img, _, err := utils.LoadImage(testCtx.path(name), 0)
	if err != nil {
		return err
	}
	if b := img.Bounds(); b.Dx() != width || b.Dy() != height {
		return fmt.Errorf("image %s is %dx%d, want %dx%d", name, b.Dx(), b.Dy(), width, height)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldStartWith(name, prefix string) error {
	data, err := os.ReadFile(testCtx.path(name))
	if err != nil {
		return err
	}
	if !strings.HasPrefix(string(data), prefix) {
		return fmt.Errorf("file %s does not start with %q", name, prefix)
	}
	return nil
}

func (testCtx *TestContext) aConfigFileWithContent(name string, content *godog.DocString) error {
	return writeFile(testCtx.path(name), []byte(content.Content))
}

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o600)
}

func (testCtx *TestContext) theEnvironmentVariableIsSetTo(name, value string) error {
	old, had := os.LookupEnv(name)
	if err := os.Setenv(name, value); err != nil {
		return err
	}
	testCtx.restoreEnv = append(testCtx.restoreEnv, func() {
		if had {
			_ = os.Setenv(name, old)
		} else {
			_ = os.Unsetenv(name)
		}
	})
	return nil
}

// RegisterCommonSteps registers command and output steps.
func (testCtx *TestContext) RegisterCommonSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)
	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the error should mention "([^"]*)"$`, testCtx.theErrorShouldMention)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the JSON field "([^"]*)" should be "([^"]*)"$`, testCtx.theJSONFieldShouldBe)
	sc.Step(`^the JSON field "([^"]*)" should have (\d+) items$`, testCtx.theJSONFieldShouldHaveItems)
	sc.Step(`^the JSON field "([^"]*)" should be at least ([0-9.]+)$`, testCtx.theJSONFieldShouldBeAtLeast)
	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the file "([^"]*)" should contain "([^"]*)"$`, testCtx.theFileShouldContain)
	sc.Step(`^the file "([^"]*)" should start with "([^"]*)"$`, testCtx.theFileShouldStartWith)
	sc.Step(`^the image "([^"]*)" should be (\d+)x(\d+)$`, testCtx.theImageShouldHaveSize)
	sc.Step(`^a config file "([^"]*)" with:$`, testCtx.aConfigFileWithContent)
	sc.Step(`^the environment variable "([^"]*)" is set to "([^"]*)"$`, testCtx.theEnvironmentVariableIsSetTo)
}
