package player

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
)

// Launcher opens video URLs in an external player. The configured command
// (mpv by default, which resolves YouTube URLs through yt-dlp) is tried
// first; when it is not installed the URL falls through to the system
// default handler, typically the browser.
type Launcher struct {
	command   string
	args      []string
	startFlag string // offset flag prefix, e.g. "--start=" or "-ss "
	ipcSocket string
	logger    *slog.Logger
}

// NewLauncher creates a new Launcher.
func NewLauncher(command string, args []string, startFlag, ipcSocket string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		command:   command,
		args:      args,
		startFlag: startFlag,
		ipcSocket: ipcSocket,
		logger:    logger,
	}
}

// Launch opens a video URL at the given start offset in seconds.
func (l *Launcher) Launch(url string, startOffset float64) error {
	if l.command == "" {
		return l.launchDefault(url)
	}

	if _, err := exec.LookPath(l.command); err != nil {
		l.logger.Warn("configured player not found, using system default", "command", l.command)
		return l.launchDefault(url)
	}

	args := append([]string{}, l.args...)

	if l.ipcSocket != "" && strings.Contains(l.command, "mpv") {
		args = append(args, "--input-ipc-server="+l.ipcSocket)
	}

	if startOffset > 0 && l.startFlag != "" {
		// Flags like "-ss " take the value as a separate argument;
		// "--start=" style gets the value appended directly.
		if strings.HasSuffix(l.startFlag, " ") {
			args = append(args, strings.TrimSuffix(l.startFlag, " "), fmt.Sprintf("%.0f", startOffset))
		} else {
			args = append(args, fmt.Sprintf("%s%.0f", l.startFlag, startOffset))
		}
	} else if startOffset > 0 && l.startFlag == "" {
		l.logger.Warn("cannot set start offset - configure start_flag", "command", l.command, "offset", startOffset)
	}

	args = append(args, url)
	l.logger.Info("launching player", "command", l.command, "args", args)

	cmd := exec.Command(l.command, args...)
	return cmd.Start() // async, don't wait
}

// launchDefault opens the URL using the system default handler.
func (l *Launcher) launchDefault(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}

	l.logger.Info("launching with system default", "os", runtime.GOOS, "url", url)
	return cmd.Start()
}
