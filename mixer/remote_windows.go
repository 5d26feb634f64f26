//go:build windows

package mixer

import (
	"fmt"
	"os"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/windows"
)

// remoteDLL talks to VoicemeeterRemote64.dll. Return codes follow the
// Voicemeeter Remote API: 0 is success, 1 from Login means "connected but
// no server yet", negatives are errors.
type remoteDLL struct {
	login    *windows.LazyProc
	logout   *windows.LazyProc
	getFloat *windows.LazyProc
	setText  *windows.LazyProc
	isDirty  *windows.LazyProc
}

var dllSearchPaths = []string{
	`C:\Program Files (x86)\VB\Voicemeeter\VoicemeeterRemote64.dll`,
	`C:\Program Files\VB\Voicemeeter\VoicemeeterRemote64.dll`,
}

// NewRemote loads the Voicemeeter Remote DLL. The handle is not logged in
// yet; the facade does that lazily.
func NewRemote() (Remote, error) {
	path, err := findDLL()
	if err != nil {
		return nil, err
	}
	dll := windows.NewLazyDLL(path)
	if err := dll.Load(); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return &remoteDLL{
		login:    dll.NewProc("VBVMR_Login"),
		logout:   dll.NewProc("VBVMR_Logout"),
		getFloat: dll.NewProc("VBVMR_GetParameterFloat"),
		setText:  dll.NewProc("VBVMR_SetParameters"),
		isDirty:  dll.NewProc("VBVMR_IsParametersDirty"),
	}, nil
}

func findDLL() (string, error) {
	if env := os.Getenv("VMCTL_REMOTE_DLL"); env != "" {
		return env, nil
	}
	for _, p := range dllSearchPaths {
		if _, err := os.Stat(p); err == nil {
			return filepath.Clean(p), nil
		}
	}
	return "", fmt.Errorf("VoicemeeterRemote64.dll not found (is Voicemeeter installed?)")
}

func (r *remoteDLL) Login() error {
	ret, _, _ := r.login.Call()
	// 1 means logged in while the Voicemeeter app is not yet running; the
	// server answers once it starts, so treat it as success.
	if int32(ret) < 0 {
		return fmt.Errorf("VBVMR_Login failed: %d", int32(ret))
	}
	return nil
}

func (r *remoteDLL) Logout() error {
	ret, _, _ := r.logout.Call()
	if int32(ret) != 0 {
		return fmt.Errorf("VBVMR_Logout failed: %d", int32(ret))
	}
	return nil
}

func (r *remoteDLL) GetFloat(param string) (float64, error) {
	name, err := windows.BytePtrFromString(param)
	if err != nil {
		return 0, err
	}
	var value float32
	ret, _, _ := r.getFloat.Call(
		uintptr(unsafe.Pointer(name)),
		uintptr(unsafe.Pointer(&value)),
	)
	if int32(ret) != 0 {
		return 0, fmt.Errorf("VBVMR_GetParameterFloat(%s) failed: %d", param, int32(ret))
	}
	return float64(value), nil
}

// SetFloat goes through VBVMR_SetParameters with an assignment script
// rather than VBVMR_SetParameterFloat: the Go syscall layer cannot pass a
// C float by value on amd64, where it travels in an XMM register.
func (r *remoteDLL) SetFloat(param string, value float64) error {
	script, err := windows.BytePtrFromString(fmt.Sprintf("%s=%.6f", param, value))
	if err != nil {
		return err
	}
	ret, _, _ := r.setText.Call(uintptr(unsafe.Pointer(script)))
	if int32(ret) != 0 {
		return fmt.Errorf("VBVMR_SetParameters(%s) failed: %d", param, int32(ret))
	}
	return nil
}

func (r *remoteDLL) IsDirty() bool {
	ret, _, _ := r.isDirty.Call()
	return int32(ret) > 0
}
