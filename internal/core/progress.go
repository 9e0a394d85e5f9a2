package core

// Progress 进度显示,*progressbar.ProgressBar满足该接口
type Progress interface {
	ChangeMax(max int)
	Add(num int) error
	Finish() error
}

type noopProgress struct{}

func (noopProgress) ChangeMax(int) {}

func (noopProgress) Add(int) error { return nil }

func (noopProgress) Finish() error { return nil }
