//go:build windows

package clipboard

import "context"

const psGetImage = `Add-Type -AssemblyName System.Windows.Forms;
Add-Type -AssemblyName System.Drawing;
$img = [System.Windows.Forms.Clipboard]::GetImage();
if ($img -eq $null) { exit 0 }
$ms = New-Object System.IO.MemoryStream;
$img.Save($ms, [System.Drawing.Imaging.ImageFormat]::Png);
$out = [Console]::OpenStandardOutput();
$out.Write($ms.ToArray(), 0, $ms.Length);
$out.Flush()`

func platformGrabbers() []grabber {
	return []grabber{{tool: "powershell", grab: grabPowerShell}}
}

func grabPowerShell(ctx context.Context, run runner) ([]byte, error) {
	return run(ctx, "powershell", "-NoProfile", "-NonInteractive", "-STA", "-Command", psGetImage)
}
