package main

import (
	"path/filepath"

	"github.com/mitranim/gg"
	"github.com/rjeczalik/notify"
)

/*
Optional auto-registration of newly created source files, using
"github.com/rjeczalik/notify". OS events are used only to find new files;
changes to registered files are still detected by polling.
*/
type WatchNotify struct {
	Mained
	Done   gg.Chan[struct{}]
	Events gg.Chan[notify.EventInfo]
}

func (self *WatchNotify) Init(main *Main) {
	self.Mained.Init(main)
	self.Done.InitCap(1)
	self.Events.InitCap(16)

	path := filepath.Join(main.Opt.Layout.Dir, `...`)
	if main.Opt.Verb {
		log.Printf(`watching %q for new files`, path)
	}
	gg.Try(notify.Watch(path, self.Events, notify.Create, notify.Rename))
}

func (self *WatchNotify) Deinit() {
	self.Done.SendZeroOpt()
	if self.Events != nil {
		notify.Stop(self.Events)
	}
}

func (self *WatchNotify) Run() {
	main := self.Main()
	reg := main.Registrar()

	for {
		select {
		case <-self.Done:
			return

		case event := <-self.Events:
			self.OnFsEvent(reg, event)
		}
	}
}

func (self *WatchNotify) OnFsEvent(reg Registrar, event FsEvent) {
	defer recLog()

	if event == nil {
		return
	}
	path := event.Path()
	if !self.Main().Opt.AllowPath(path) || reg.Registry.Has(path) {
		return
	}
	if self.Main().Opt.Verb {
		log.Println(`registering on FS event:`, event)
	}
	reg.RegisterPath(path)
}
