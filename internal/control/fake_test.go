package control

import "github.com/san-kum/mechctl/internal/dynamo"

type command struct {
	closedLoop  bool
	target      float64
	feedforward float64
	openLoop    float64
}

type fakeMotor struct {
	velocity float64
	commands []command
	gainPush []dynamo.Gains
}

func (f *fakeMotor) SetClosedLoopVelocity(target, ff float64) {
	f.commands = append(f.commands, command{closedLoop: true, target: target, feedforward: ff})
}

func (f *fakeMotor) SetOpenLoop(fraction float64) {
	f.commands = append(f.commands, command{openLoop: fraction})
}

func (f *fakeMotor) SetClosedLoopGains(g dynamo.Gains) {
	f.gainPush = append(f.gainPush, g)
}

func (f *fakeMotor) MeasuredVelocity() float64 { return f.velocity }

func (f *fakeMotor) last() command {
	return f.commands[len(f.commands)-1]
}

type mapSink map[string]float64

func (m mapSink) PutNumber(key string, value float64) { m[key] = value }
