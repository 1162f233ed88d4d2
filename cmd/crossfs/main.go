// Command crossfs mounts the unified namespace: a FUSE filesystem that
// presents files from multiple stratum root directories as one tree,
// rewriting selected files' content according to a routing table
// maintained through a control file.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"

	"bedrock.io/crossfs/internal/config"
	"bedrock.io/crossfs/internal/dispatch"
	"bedrock.io/crossfs/internal/elog"
	"bedrock.io/crossfs/internal/rootedio"
	"bedrock.io/crossfs/internal/routing"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] <mountpoint>\n", os.Args[0])
	os.Exit(2)
}

func main() {
	config.Parse()
	if config.Mountpoint == "" {
		usage()
	}

	// Every rooted-I/O call chroots the whole process; only uid 0 can do
	// that, and the daemon impersonates callers via setfsuid/setfsgid on
	// top of it, which also requires the root identity it starts with.
	if os.Geteuid() != 0 {
		elog.Error.Fatal("crossfs must run as uid 0")
	}

	redirector, err := os.ReadFile(config.Redirector)
	if err != nil {
		elog.Error.Fatalf("reading redirector %s: %v", config.Redirector, err)
	}

	ex, err := rootedio.NewExecutor()
	if err != nil {
		elog.Error.Fatalf("opening initial root directory: %v", err)
	}

	// The strata root must be openable at startup: a misconfigured
	// -strata-root should fail the process now, not mid-request the
	// first time some stratum label resolves beneath it.
	strataDir, err := os.Open(config.StrataRoot)
	if err != nil {
		elog.Error.Fatalf("opening strata root %s: %v", config.StrataRoot, err)
	}
	if fi, err := strataDir.Stat(); err != nil || !fi.IsDir() {
		strataDir.Close()
		elog.Error.Fatalf("strata root %s is not a directory", config.StrataRoot)
	}
	strataDir.Close()

	table := routing.NewTable(config.StrataRoot)
	srv := &dispatch.Server{
		Table:       table,
		Exec:        ex,
		ControlPath: config.DefaultControlPath,
		ControlName: config.DefaultControlName,
		StratTool:   config.StratTool,
		Redirector:  redirector,
	}

	c, err := fuse.Mount(
		config.Mountpoint,
		fuse.FSName("crossfs"),
		fuse.Subtype("crossfs"),
		fuse.LocalVolume(),
		fuse.VolumeName("crossfs"),
	)
	if err == fuse.ErrOSXFUSENotFound {
		elog.Error.Fatal("FUSE is not installed")
	}
	if err != nil {
		elog.Error.Fatalf("fuse.Mount failed: %v", err)
	}
	defer c.Close()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		fuse.Unmount(config.Mountpoint)
	}()

	<-c.Ready
	if err := c.MountError; err != nil {
		elog.Error.Fatal(err)
	}

	elog.Info.Printf("serving %s from strata root %s", config.Mountpoint, config.StrataRoot)
	if err := fs.Serve(c, srv); err != nil {
		elog.Error.Fatal(err)
	}
}
