// SPDX-License-Identifier: MPL-2.0

package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ereborstudios/smaug/pkg/copydir"
	"github.com/ereborstudios/smaug/pkg/dependency"
)

// DirSource copies a local package directory.
type DirSource struct {
	presence

	Path string
	env  Env
}

// Install copies Path into destination/<dep.Name>.
func (s DirSource) Install(ctx context.Context, dep dependency.Dependency, destination string) error {
	return fetchError(dependency.KindDir, dep, s.install(ctx, dep, destination))
}

// Kind returns dependency.KindDir.
func (DirSource) Kind() dependency.Kind { return dependency.KindDir }

// Clone returns a copy of s.
func (s DirSource) Clone() Source { return s }

func (s DirSource) install(ctx context.Context, dep dependency.Dependency, destination string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(s.Path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.Path)
	}

	target := filepath.Join(destination, dep.Name)
	s.env.Logger.Debug("installing directory", "from", s.Path, "to", target)
	return copydir.Copy(s.Path, target, copydir.WithLogger(s.env.Logger))
}
