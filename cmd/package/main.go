// Command package assembles a distributable launcher bundle: the frontend, the game
// library, a manifest, an icon and optionally the server binary with a launcher.ini.
package main

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Ashenafi-pixel/arcade-launcher/ingest"
	"github.com/Ashenafi-pixel/arcade-launcher/library"
	"github.com/Ashenafi-pixel/arcade-launcher/web"

	"github.com/spf13/pflag"
	"gopkg.in/ini.v1"
)

// manifest is written to <out>/manifest.json for the target platform's app store.
type manifest struct {
	Name        string   `json:"name"`
	ID          string   `json:"id"`
	Version     string   `json:"version"`
	Entry       string   `json:"entry"`
	Description string   `json:"description"`
	Author      string   `json:"author"`
	Games       []string `json:"games"`
}

type options struct {
	Out         string
	Games       string
	Name        string
	ID          string
	Version     string
	Description string
	Author      string
	Icon        string
	Binary      string
}

func main() {
	var o options
	pflag.StringVarP(&o.Out, "out", "o", "dist", "output directory")
	pflag.StringVar(&o.Games, "games", "games", "game library to bundle")
	pflag.StringVar(&o.Name, "name", "Arcade Launcher", "display name")
	pflag.StringVar(&o.ID, "id", "", "bundle id (default: slug of --name)")
	pflag.StringVar(&o.Version, "version", "1.0.0", "bundle version")
	pflag.StringVar(&o.Description, "description", "Browser game launcher", "bundle description")
	pflag.StringVar(&o.Author, "author", "", "bundle author")
	pflag.StringVar(&o.Icon, "icon", "", "PNG icon to include (default: generated)")
	pflag.StringVar(&o.Binary, "binary", "", "launcher server binary to include as the entry point")
	pflag.Parse()

	if err := run(o); err != nil {
		fmt.Fprintf(os.Stderr, "package failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Packaged %q into %s\n", o.Name, o.Out)
}

func run(o options) error {
	if o.ID == "" {
		id, err := library.Slugify(o.Name)
		if err != nil {
			return fmt.Errorf("--id: %w", err)
		}
		o.ID = id
	}
	if err := os.MkdirAll(o.Out, 0755); err != nil {
		return err
	}

	if err := writeStatic(web.FS(), filepath.Join(o.Out, "static")); err != nil {
		return fmt.Errorf("frontend: %w", err)
	}
	ids, err := copyGames(o.Games, filepath.Join(o.Out, "games"))
	if err != nil {
		return fmt.Errorf("games: %w", err)
	}

	entry := "static/index.html"
	if o.Binary != "" {
		entry = filepath.Base(o.Binary)
		if err := copyExecutable(o.Binary, filepath.Join(o.Out, entry)); err != nil {
			return fmt.Errorf("binary: %w", err)
		}
		if err := writeLauncherINI(filepath.Join(o.Out, "launcher.ini")); err != nil {
			return fmt.Errorf("launcher.ini: %w", err)
		}
	}

	if err := writeIcon(o.Icon, filepath.Join(o.Out, "icon.png")); err != nil {
		return fmt.Errorf("icon: %w", err)
	}

	m := manifest{
		Name:        o.Name,
		ID:          o.ID,
		Version:     o.Version,
		Entry:       entry,
		Description: o.Description,
		Author:      o.Author,
		Games:       ids,
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(o.Out, "manifest.json"), append(data, '\n'), 0644)
}

// writeStatic materialises the embedded frontend under dst.
func writeStatic(src fs.FS, dst string) error {
	return fs.WalkDir(src, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(dst, filepath.FromSlash(p))
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		data, err := fs.ReadFile(src, p)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0644)
	})
}

// copyGames copies every game of the library rooted at src and returns their ids.
func copyGames(src, dst string) ([]string, error) {
	games, err := library.New(src).List()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dst, 0755); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(games))
	for _, g := range games {
		if err := ingest.CopyTree(g.Path, filepath.Join(dst, g.ID)); err != nil {
			return nil, fmt.Errorf("%s: %w", g.ID, err)
		}
		ids = append(ids, g.ID)
	}
	return ids, nil
}

func copyExecutable(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// writeLauncherINI points the bundled binary at the bundled frontend and library and
// starts it in kiosk mode.
func writeLauncherINI(path string) error {
	f := ini.Empty()
	root := f.Section("")
	root.Key("games_dir").SetValue("games")
	root.Key("static_dir").SetValue("static")
	root.Key("data_dir").SetValue("data")
	root.Key("native_gamepads").SetValue("true")
	k := f.Section("kiosk")
	k.Key("enabled").SetValue("true")
	k.Key("no_extensions").SetValue("true")
	return f.SaveTo(path)
}

func writeIcon(src, dst string) error {
	if src != "" {
		in, err := os.Open(src)
		if err != nil {
			return err
		}
		defer in.Close()
		if _, err := png.DecodeConfig(in); err != nil {
			return fmt.Errorf("%s is not a PNG: %w", src, err)
		}
		return ingest.CopyTree(src, dst)
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if err := png.Encode(out, generatedIcon(256)); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// generatedIcon draws a play triangle on a vertical gradient.
func generatedIcon(size int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		shade := uint8(0x20 + 0x40*y/size)
		for x := 0; x < size; x++ {
			img.Set(x, y, color.RGBA{R: shade / 2, G: shade, B: shade + 0x30, A: 0xff})
		}
	}
	accent := color.RGBA{R: 0x5a, G: 0xc8, B: 0xfa, A: 0xff}
	left, right := size*3/8, size*11/16
	top, bottom := size/4, size*3/4
	mid := size / 2
	for x := left; x <= right; x++ {
		half := (bottom - top) / 2 * (right - x) / (right - left)
		for y := mid - half; y <= mid+half; y++ {
			img.Set(x, y, accent)
		}
	}
	return img
}
