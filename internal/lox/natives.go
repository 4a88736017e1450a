package lox

// registerNatives installs the seed builtins (spec §6): clock, str, and
// the range class, plus the StopIteration sentinel (spec §9 "Iteration
// end-of-stream"). Grounded on original_source/natives.py's
// range_init/range_next and clock/str natives, generalized with a
// signed-step termination check the original lacks (spec §4.4.5's
// `range(5,0,-1)` test case).
func (in *Interpreter) registerNatives() {
	in.StopIterationClass = NewClass("StopIteration", nil)
	in.StopIteration = NewInstance(in.StopIterationClass)
	in.Globals.Define("StopIteration", in.StopIteration)

	in.Globals.Define("clock", &NativeFunction{
		Name: "clock", Min: 0, Max: 0,
		Fn: func(in *Interpreter, args []Value) (Value, error) {
			return NewFloat(in.elapsedClock()), nil
		},
	})

	in.Globals.Define("str", &NativeFunction{
		Name: "str", Min: 0, Max: 1,
		Fn: func(in *Interpreter, args []Value) (Value, error) {
			if len(args) == 0 {
				return NewString(""), nil
			}
			return NewString(args[0].String()), nil
		},
	})

	in.RangeClass = newRangeClass()
	in.Globals.Define("range", in.RangeClass)
}

// newRangeClass builds the native `range(start, stop[, step])` iterator
// class (spec §4.4.5): init stores (start, stop, step, index); iter
// returns the instance itself; next computes start + index*step and
// signals end-of-stream by returning the StopIteration sentinel once that
// value has reached stop (>= stop for step > 0, <= stop for step < 0), or
// at once when step is 0, resetting index to 0 when it does.
func newRangeClass() *Class {
	class := NewClass("range", nil)

	class.Methods.Put("init", &NativeMethod{
		Name: "init", Min: 1, Max: 3,
		Fn: func(in *Interpreter, self *Instance, args []Value) (Value, error) {
			start, stop, step := 0.0, 0.0, 1.0
			switch len(args) {
			case 1:
				stop = numberArg(args[0])
			case 2:
				start, stop = numberArg(args[0]), numberArg(args[1])
			case 3:
				start, stop, step = numberArg(args[0]), numberArg(args[1]), numberArg(args[2])
			}
			self.Fields.Put("start", NewFloat(start))
			self.Fields.Put("stop", NewFloat(stop))
			self.Fields.Put("step", NewFloat(step))
			self.Fields.Put("index", NewInt(0))
			return self, nil
		},
	})

	class.Methods.Put("iter", &NativeMethod{
		Name: "iter", Min: 0, Max: 0,
		Fn: func(in *Interpreter, self *Instance, args []Value) (Value, error) {
			return self, nil
		},
	})

	class.Methods.Put("next", &NativeMethod{
		Name: "next", Min: 0, Max: 0,
		Fn: func(in *Interpreter, self *Instance, args []Value) (Value, error) {
			start := fieldNumber(self, "start")
			stop := fieldNumber(self, "stop")
			step := fieldNumber(self, "step")
			index := fieldNumber(self, "index")

			next := start + index*step
			if (step > 0 && next >= stop) || (step < 0 && next <= stop) || step == 0 {
				self.Fields.Put("index", NewInt(0))
				return in.StopIteration, nil
			}

			self.Fields.Put("index", NewFloat(index+1))
			return NewInt(next), nil
		},
	})

	return class
}

func numberArg(v Value) float64 {
	if n, ok := v.(*Number); ok {
		return n.Value
	}
	return 0
}

func fieldNumber(inst *Instance, name string) float64 {
	v, _ := inst.Fields.Get(name)
	return numberArg(v)
}
