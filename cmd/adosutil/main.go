// Command adosutil inspects and edits AmigaDOS volume images.
package main

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"strings"
	"time"

	"github.com/amigados/goados/fs"
	"github.com/amigados/goados/imagefile"
	"github.com/amigados/goados/internal/blockdev"
	"github.com/amigados/goados/node"
)

var debug = flag.Bool("debug", false, "format error messages with additional detail")

func main() {
	if err := funcmain(); err != nil {
		if *debug {
			fmt.Fprintf(os.Stderr, "%+v\n", err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

type cmd struct {
	fn func(ctx context.Context, args []string) error
}

func funcmain() error {
	flag.Parse()

	verbs := map[string]cmd{
		"create": {cmdCreate},
		"ls":     {cmdLs},
		"cat":    {cmdCat},
		"put":    {cmdPut},
		"mkdir":  {cmdMkdir},
		"rm":     {cmdRm},
		"mv":     {cmdMv},
		"cp":     {cmdCp},
		"doctor": {cmdDoctor},
		"usage":  {cmdUsage},
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "adosutil [-flags] <command> [-flags] <args>\n")
		fmt.Fprintf(os.Stderr, "commands: create, ls, cat, put, mkdir, rm, mv, cp, doctor, usage\n")
		os.Exit(2)
	}
	verb, rest := args[0], args[1:]

	v, ok := verbs[verb]
	if !ok {
		return fmt.Errorf("unknown command %q", verb)
	}
	return v.fn(context.Background(), rest)
}

// openVolume loads image (decompressing per imagefile.DetectCodec) and
// returns a ready-to-use FileSystem for an OFS/FFS DD-floppy layout.
func openVolume(image string) (*fs.FileSystem, error) {
	dev, err := imagefile.Load(image, 512)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 512)
	if err := dev.ReadBlock(0, buf); err != nil {
		return nil, err
	}
	dos, err := fs.DOSTypeFromFlavorByte(buf[3])
	if err != nil {
		return nil, err
	}
	layout := fs.NewDDFloppyLayout(dos)
	layout.Capacity = dev.Capacity()
	return fs.New(dev, layout)
}

// cmdCreate formats a brand-new DD-floppy volume entirely in memory
// (backed by writerseeker, via blockdev.Memory) and only touches the
// real filesystem once, via imagefile.Save, so a crash mid-format never
// leaves a half-written image where none existed before.
func cmdCreate(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("create", flag.ExitOnError)
	image := fset.String("image", "", "path to write the new volume image")
	name := fset.String("name", "Empty", "volume label")
	ffs := fset.Bool("ffs", true, "format as FFS instead of OFS")
	fset.Parse(args)

	dos := fs.OFS
	if *ffs {
		dos = fs.FFS
	}
	layout := fs.NewDDFloppyLayout(dos)
	dev := blockdev.NewMemory(layout.Capacity, layout.BSize)
	if _, err := fs.Format(dev, layout, *name, fs.DateFromTime(time.Now())); err != nil {
		return err
	}
	return imagefile.Save(*image, dev, imagefile.DetectCodec(*image))
}

func cmdLs(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("ls", flag.ExitOnError)
	image := fset.String("image", "", "path to the volume image")
	path := fset.String("path", "/", "directory to list")
	fset.Parse(args)

	fsys, err := openVolume(*image)
	if err != nil {
		return err
	}
	dir, err := node.SeekDir(node.Root(fsys), *path)
	if err != nil {
		return err
	}
	children, err := node.Children(dir)
	if err != nil {
		return err
	}
	for _, c := range children {
		name, _ := c.Name()
		kind, _ := c.Kind()
		size, _ := c.Size()
		fmt.Printf("%-8s %10d  %s\n", kind, size, name)
	}
	return nil
}

func cmdCat(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("cat", flag.ExitOnError)
	image := fset.String("image", "", "path to the volume image")
	path := fset.String("path", "", "file to print")
	fset.Parse(args)

	fsys, err := openVolume(*image)
	if err != nil {
		return err
	}
	f, err := node.SeekFile(node.Root(fsys), *path)
	if err != nil {
		return err
	}
	data, err := node.Read(f)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func cmdPut(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("put", flag.ExitOnError)
	image := fset.String("image", "", "path to the volume image")
	path := fset.String("path", "", "destination path inside the volume")
	source := fset.String("source", "", "local file to copy in")
	fset.Parse(args)

	fsys, err := openVolume(*image)
	if err != nil {
		return err
	}
	data, err := ioutil.ReadFile(*source)
	if err != nil {
		return err
	}
	idx := strings.LastIndex(*path, "/")
	dirPath, name := "/", *path
	if idx >= 0 {
		dirPath, name = (*path)[:idx], (*path)[idx+1:]
	}
	dir, err := node.SeekDir(node.Root(fsys), dirPath)
	if err != nil {
		return err
	}
	f, err := node.CreateFile(dir, name)
	if err != nil {
		return err
	}
	if err := node.Replace(f, data); err != nil {
		return err
	}
	return imagefile.Save(*image, fsys.Cache.Device(), imagefile.DetectCodec(*image))
}

func cmdMkdir(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("mkdir", flag.ExitOnError)
	image := fset.String("image", "", "path to the volume image")
	path := fset.String("path", "", "directory to create")
	fset.Parse(args)

	fsys, err := openVolume(*image)
	if err != nil {
		return err
	}
	idx := strings.LastIndex(*path, "/")
	dirPath, name := "/", *path
	if idx >= 0 {
		dirPath, name = (*path)[:idx], (*path)[idx+1:]
	}
	dir, err := node.SeekDir(node.Root(fsys), dirPath)
	if err != nil {
		return err
	}
	if _, err := node.Mkdir(dir, name); err != nil {
		return err
	}
	return imagefile.Save(*image, fsys.Cache.Device(), imagefile.DetectCodec(*image))
}

func cmdRm(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("rm", flag.ExitOnError)
	image := fset.String("image", "", "path to the volume image")
	path := fset.String("path", "", "entry to remove")
	fset.Parse(args)

	fsys, err := openVolume(*image)
	if err != nil {
		return err
	}
	n, err := node.SeekPath(node.Root(fsys), *path)
	if err != nil {
		return err
	}
	if err := node.Rm(n); err != nil {
		return err
	}
	return imagefile.Save(*image, fsys.Cache.Device(), imagefile.DetectCodec(*image))
}

func cmdMv(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("mv", flag.ExitOnError)
	image := fset.String("image", "", "path to the volume image")
	from := fset.String("from", "", "entry to move")
	to := fset.String("to", "", "destination directory")
	fset.Parse(args)

	fsys, err := openVolume(*image)
	if err != nil {
		return err
	}
	n, err := node.SeekPath(node.Root(fsys), *from)
	if err != nil {
		return err
	}
	dst, err := node.SeekDir(node.Root(fsys), *to)
	if err != nil {
		return err
	}
	if err := node.Move(n, dst); err != nil {
		return err
	}
	return imagefile.Save(*image, fsys.Cache.Device(), imagefile.DetectCodec(*image))
}

func cmdCp(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("cp", flag.ExitOnError)
	image := fset.String("image", "", "path to the volume image")
	from := fset.String("from", "", "file to copy")
	to := fset.String("to", "", "destination path")
	fset.Parse(args)

	fsys, err := openVolume(*image)
	if err != nil {
		return err
	}
	src, err := node.SeekFile(node.Root(fsys), *from)
	if err != nil {
		return err
	}
	idx := strings.LastIndex(*to, "/")
	dirPath, name := "/", *to
	if idx >= 0 {
		dirPath, name = (*to)[:idx], (*to)[idx+1:]
	}
	dstDir, err := node.SeekDir(node.Root(fsys), dirPath)
	if err != nil {
		return err
	}
	if _, err := node.Copy(src, dstDir, name); err != nil {
		return err
	}
	return imagefile.Save(*image, fsys.Cache.Device(), imagefile.DetectCodec(*image))
}

func cmdDoctor(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("doctor", flag.ExitOnError)
	image := fset.String("image", "", "path to the volume image")
	fset.Parse(args)

	fsys, err := openVolume(*image)
	if err != nil {
		return err
	}
	findings, err := fsys.Doctor().XRayBlocks()
	if err != nil {
		return err
	}
	reachable, err := fs.CollectReachable(fsys.Cache, fsys.Layout, fsys.Layout.RootNr)
	if err != nil {
		return err
	}
	findings = append(findings, fsys.Doctor().XRayBitmap(reachable)...)
	for _, f := range findings {
		log.Printf("block %d: [%s] %s: expected %d, got %d %s", f.BlockNr, f.Severity, f.Field, f.Expected, f.Actual, f.Message)
	}
	fmt.Printf("%d findings\n", len(findings))
	return nil
}

// findingDiag adapts a doctor finding slice to block.Diag so HealthMap
// can downsample x-ray results without importing package fs.
type findingDiag map[uint32]bool

func (d findingDiag) Flagged(nr uint32) bool { return d[nr] }

func cmdUsage(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("usage", flag.ExitOnError)
	image := fset.String("image", "", "path to the volume image")
	bins := fset.Int("bins", 64, "number of buckets in the usage map")
	mode := fset.String("mode", "alloc", "what to visualize: alloc, kind, or health")
	fset.Parse(args)

	fsys, err := openVolume(*image)
	if err != nil {
		return err
	}
	dst := make([]byte, *bins)
	switch *mode {
	case "alloc":
		fsys.Bitmap.UsageMap(dst)
	case "kind":
		for nr := uint32(0); nr < fsys.Layout.Capacity; nr++ {
			if _, err := fsys.Cache.Fetch(nr); err != nil {
				return err
			}
		}
		fsys.Cache.UsageMap(dst)
	case "health":
		findings, err := fsys.Doctor().XRayBlocks()
		if err != nil {
			return err
		}
		diag := findingDiag{}
		for _, f := range findings {
			diag[f.BlockNr] = true
		}
		fsys.Cache.HealthMap(dst, diag)
	default:
		return fmt.Errorf("unknown usage mode %q (want alloc, kind, or health)", *mode)
	}
	for _, v := range dst {
		fmt.Printf("%d ", v)
	}
	fmt.Println()
	return nil
}
