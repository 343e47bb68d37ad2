package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"golang.org/x/term"
)

type MenuItem struct {
	ID          int
	Title       string
	Description string
	Action      func() error
}

type Menu struct {
	Title    string
	Items    []MenuItem
	ExitText string
}

var (
	// Color functions
	Red    = color.New(color.FgRed).SprintFunc()
	Green  = color.New(color.FgGreen).SprintFunc()
	Yellow = color.New(color.FgYellow).SprintFunc()
	Blue   = color.New(color.FgBlue).SprintFunc()
	Cyan   = color.New(color.FgCyan).SprintFunc()
	White  = color.New(color.FgWhite).SprintFunc()
	Bold   = color.New(color.Bold).SprintFunc()
)

func PrintHeader(version, date string) {
	ClearScreen()
	fmt.Println()

	title := "Lodestone - Linux Modding Helper"
	versionLine := fmt.Sprintf("Version: %s | Date: %s", version, date)
	repoLine := "Project repository: https://github.com/lodestone-mods/lodestone"

	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width = w
	}

	boxWidth := 70
	if boxWidth > width-4 {
		boxWidth = width - 4
	}

	fmt.Println(Cyan("┌" + strings.Repeat("─", boxWidth) + "┐"))
	for _, line := range []string{title, "", versionLine, repoLine} {
		padding := (boxWidth - len(line)) / 2
		if padding < 0 {
			padding = 0
		}
		text := line
		if line == title {
			text = Bold(line)
		}
		fmt.Println(Cyan("│") + strings.Repeat(" ", padding) + text + strings.Repeat(" ", boxWidth-len(line)-padding) + Cyan("│"))
	}
	fmt.Println(Cyan("└" + strings.Repeat("─", boxWidth) + "┘"))
	fmt.Println()
}

func PrintSection(title string) {
	fmt.Println()
	fmt.Println(Bold(Cyan("=== " + title + " ===")))
	fmt.Println()
}

func PrintInfo(message string) {
	fmt.Println(Blue("ℹ ") + message)
}

func PrintSuccess(message string) {
	fmt.Println(Green("✓ ") + message)
}

func PrintWarning(message string) {
	fmt.Println(Yellow("⚠ ") + message)
}

func PrintError(message string) {
	fmt.Println(Red("✗ ") + message)
}

// PrintCommand prints a command example with special formatting
func PrintCommand(command string) {
	fmt.Printf("%s\n", Blue(command))
}

func DisplayMenu(menu Menu) (int, error) {
	for {
		fmt.Println()

		var items []string
		for i, item := range menu.Items {
			items = append(items, fmt.Sprintf("%d. %s - %s", i+1, item.Title, item.Description))
		}

		if menu.ExitText != "" {
			items = append(items, fmt.Sprintf("%d. %s", len(menu.Items)+1, menu.ExitText))
		}

		fmt.Println("Select an option:")
		for _, item := range items {
			fmt.Printf("  %s\n", item)
		}
		fmt.Println()

		input, err := GetInput("Enter your choice (1-"+strconv.Itoa(len(items))+")", "")
		if err != nil {
			return -1, err
		}

		if strings.TrimSpace(input) == "" {
			fmt.Println("Please enter a valid choice.")
			continue
		}

		choice, err := strconv.Atoi(input)
		if err != nil {
			fmt.Printf("Invalid choice '%s'. Please enter a number between 1 and %d.\n", input, len(items))
			continue
		}

		if choice < 1 || choice > len(items) {
			fmt.Printf("Choice %d is out of range. Please enter a number between 1 and %d.\n", choice, len(items))
			continue
		}

		return choice, nil
	}
}

func ConfirmAction(message string) (bool, error) {
	prompt := promptui.Prompt{
		Label: message + " (y/N)",
		Validate: func(input string) error {
			input = strings.ToLower(strings.TrimSpace(input))
			if input == "" || input == "n" || input == "no" || input == "y" || input == "yes" {
				return nil
			}
			return fmt.Errorf("please enter y/yes or n/no")
		},
	}

	result, err := prompt.Run()
	if err != nil {
		return false, err
	}

	input := strings.ToLower(strings.TrimSpace(result))
	return input == "y" || input == "yes", nil
}

func GetInput(prompt string, defaultVal string) (string, error) {
	p := promptui.Prompt{
		Label:     prompt,
		AllowEdit: true,
		Validate: func(input string) error {
			// Empty input is fine for optional fields
			return nil
		},
	}

	if defaultVal != "" {
		p.Default = defaultVal
	}

	return p.Run()
}

func GetInputWithValidation(prompt string, validate func(string) error) (string, error) {
	p := promptui.Prompt{
		Label:    prompt,
		Validate: validate,
	}

	return p.Run()
}

// GetInputWithTabCompletion provides input with tab completion for file paths
func GetInputWithTabCompletion(prompt string, defaultVal string) (string, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt + " ",
		HistoryFile:     "/tmp/lodestone.tmp",
		AutoComplete:    &pathCompleter{},
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return "", err
	}
	defer rl.Close()

	fmt.Println("Tip: Use Tab for path completion, ~ for home directory (e.g., ~/Games/MO2)")

	if defaultVal != "" {
		rl.SetPrompt(prompt + " [" + defaultVal + "] ")
	}

	line, err := rl.Readline()
	if err != nil {
		return "", err
	}

	if line == "" && defaultVal != "" {
		return defaultVal, nil
	}

	return line, nil
}

// pathCompleter implements readline.AutoCompleter for file path completion.
// It completes to the common prefix of matching entries and prints the
// candidates when the prefix is ambiguous.
type pathCompleter struct{}

func (c *pathCompleter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	input := string(line[:pos])

	words := strings.Fields(input)
	if len(words) == 0 {
		return [][]rune{}, 0
	}

	lastWord := words[len(words)-1]

	if lastWord == "~" {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return [][]rune{[]rune(input + homeDir[1:])}, len(homeDir) - 1
		}
		return [][]rune{}, 0
	}

	dir, prefix := filepath.Split(lastWord)
	if dir == "" {
		dir = "."
	}

	if strings.HasPrefix(dir, "~") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			dir = filepath.Join(homeDir, dir[1:])
		}
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		return [][]rune{}, 0
	}

	var matches []string
	for _, file := range files {
		name := file.Name()
		if strings.HasPrefix(strings.ToLower(name), strings.ToLower(prefix)) {
			matches = append(matches, name)
		}
	}

	if len(matches) == 0 {
		return [][]rune{}, 0
	}

	common := findCommonPrefix(matches)
	if common == "" || common == prefix {
		fmt.Println("\nPossible completions:")
		for _, match := range matches {
			fmt.Printf("  %s\n", match)
		}
		return [][]rune{}, 0
	}

	suffix := strings.TrimPrefix(common, prefix)
	if suffix == "" {
		return [][]rune{}, 0
	}

	// A single directory match gets a trailing slash so the next Tab
	// descends into it.
	if len(matches) == 1 {
		matchPath := filepath.Join(dir, matches[0])
		if info, err := os.Stat(matchPath); err == nil && info.IsDir() {
			suffix += "/"
		}
	}

	return [][]rune{[]rune(suffix)}, len(suffix)
}

// findCommonPrefix finds the common prefix of a list of strings
func findCommonPrefix(strs []string) string {
	if len(strs) == 0 {
		return ""
	}

	prefix := strs[0]
	for _, str := range strs[1:] {
		prefix = commonPrefix(prefix, str)
		if prefix == "" {
			break
		}
	}

	return prefix
}

func commonPrefix(a, b string) string {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}

	for i := 0; i < minLen; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}

	return a[:minLen]
}

func Pause(message string) {
	fmt.Println()
	fmt.Print(message)
	fmt.Scanln()
}

func ClearScreen() {
	fmt.Print("\033[H\033[2J")
	fmt.Print("\033[3J")
}

func ClearScreenAndShowHeader(version, date string) {
	ClearScreen()
	PrintHeader(version, date)
}

func PrintProgressBar(current, total int, message string) {
	width := 50
	progress := float64(current) / float64(total)
	filled := int(float64(width) * progress)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	percentage := int(progress * 100)

	fmt.Printf("\r%s [%s] %d%%", message, bar, percentage)

	if current == total {
		fmt.Println()
	}
}

func ValidatePath(input string) error {
	if input == "" {
		return fmt.Errorf("path cannot be empty")
	}

	if _, err := os.Stat(input); os.IsNotExist(err) {
		return fmt.Errorf("path does not exist: %s", input)
	}

	return nil
}

func ValidateNumber(input string) error {
	if input == "" {
		return fmt.Errorf("value cannot be empty")
	}

	if _, err := strconv.Atoi(input); err != nil {
		return fmt.Errorf("must be a valid number")
	}

	return nil
}
