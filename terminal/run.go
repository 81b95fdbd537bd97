package terminal

// Run initializes an engine on /dev/tty, calls fn, and shuts the engine down on every
// exit path. A panic in fn is re-raised after the terminal is restored.
func Run(opts Options, fn func(*Engine) error) error {
	e := New(opts)
	if err := e.Init(); err != nil {
		return err
	}
	return e.Run(fn)
}

// Run calls fn on an initialized engine and shuts it down afterwards. fn's error
// takes precedence over a shutdown error.
func (e *Engine) Run(fn func(*Engine) error) (err error) {
	if err := e.check("run"); err != nil {
		return err
	}
	defer func() {
		r := recover()
		serr := e.Shutdown()
		if CodeOf(serr) == CodeAlreadyShutdown {
			// fn ended the session itself, or input closed
			serr = nil
		}
		if r != nil {
			panic(r)
		}
		if err == nil {
			err = serr
		}
	}()
	return fn(e)
}
