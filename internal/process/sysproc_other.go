//go:build !unix

package process

import (
	"os"
	"os/exec"
)

func setProcAttr(_ *exec.Cmd) {}

func forceKill(p *os.Process) error {
	return p.Kill()
}
