package vfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrno(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want syscall.Errno
	}{
		{"nil", nil, 0},
		{"bare errno", syscall.ENOTDIR, syscall.ENOTDIR},
		{"wrapped errno", fmt.Errorf("open: %w", syscall.EACCES), syscall.EACCES},
		{"path error", &fs.PathError{Op: "stat", Path: "/x", Err: syscall.ENOENT}, syscall.ENOENT},
		{"syscall error", os.NewSyscallError("read", syscall.EBADF), syscall.EBADF},
		{"opaque error", errors.New("boom"), syscall.EIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Errno(tt.err))
		})
	}
}

func TestErrno_HostErrorsKeepTheirNumber(t *testing.T) {
	// A real host failure, exactly as backends propagate it
	_, err := os.Stat("/nonexistent/mirrorfs/test/path")
	assert.Equal(t, syscall.ENOENT, Errno(err))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}
