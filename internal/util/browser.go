package util

import (
	"os/exec"
	"runtime"
)

// 各平台的备选浏览器
var fallbackBrowsers = map[string][]string{
	"windows": {"explorer"},
	"linux":   {"google-chrome", "firefox", "chromium-browser", "sensible-browser"},
}

// browserCommand 返回平台默认的打开方式
func browserCommand(goos, url string) []string {
	switch goos {
	case "windows":
		// rundll32 在旧版 Windows 上比 cmd /c start 稳定
		return []string{"rundll32", "url.dll,FileProtocolHandler", url}
	case "darwin":
		return []string{"open", url}
	default:
		return []string{"xdg-open", url}
	}
}

// OpenBrowser 用默认浏览器打开地址，失败时依次尝试备选浏览器
func OpenBrowser(url string) error {
	args := browserCommand(runtime.GOOS, url)
	err := exec.Command(args[0], args[1:]...).Start()
	if err == nil {
		return nil
	}
	for _, browser := range fallbackBrowsers[runtime.GOOS] {
		if exec.Command(browser, url).Start() == nil {
			return nil
		}
	}
	return err
}
