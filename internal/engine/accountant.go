package engine

import (
	"burnlink/internal/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// Unknown 请求元数据缺失时写入的占位值
	Unknown = "unknown"
	// QueueSize 记账队列的缓冲区大小，队列满时直接丢弃新记录
	QueueSize = 1024
)

// Accountant 访问记账器：把访问记录经缓冲通道交给后台协程落库，
// 调用方（跳转路径）永远不等待写入完成。写入失败只记日志，不重试，
// 不回传给终端用户——丢一条访问统计可以接受，丢一次跳转不可以。
type Accountant struct {
	db     *gorm.DB
	queue  chan model.Visit
	stop   chan struct{}
	done   chan struct{}
	logger *zap.SugaredLogger
}

// NewAccountant 创建记账器实例
func NewAccountant(db *gorm.DB, logger *zap.SugaredLogger) *Accountant {
	return &Accountant{
		db:     db,
		queue:  make(chan model.Visit, QueueSize),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		logger: logger.Named("accountant"),
	}
}

// Start 启动后台落库协程
func (a *Accountant) Start() {
	go a.run()
}

// Stop 停止记账器并排空队列中已接收的记录
func (a *Accountant) Stop() {
	close(a.stop)
	<-a.done
}

// Record 投递一条访问记录，永不阻塞：队列满时丢弃并记日志。
// 空的元数据字段替换为 "unknown"。
func (a *Accountant) Record(linkID uint, ip, userAgent, referer string) {
	v := model.Visit{
		LinkID:    linkID,
		IP:        orUnknown(ip),
		UserAgent: orUnknown(userAgent),
		Referer:   orUnknown(referer),
	}
	select {
	case a.queue <- v:
	default:
		a.logger.Warnf("记账队列已满，丢弃一条访问记录 link_id=%d", linkID)
	}
}

func (a *Accountant) run() {
	defer close(a.done)
	for {
		select {
		case v := <-a.queue:
			a.write(v)
		case <-a.stop:
			// 停机前尽量把已入队的记录写完
			for {
				select {
				case v := <-a.queue:
					a.write(v)
				default:
					a.logger.Info("访问记账器已停止")
					return
				}
			}
		}
	}
}

func (a *Accountant) write(v model.Visit) {
	if err := a.db.Create(&v).Error; err != nil {
		a.logger.Errorf("写入访问记录失败 link_id=%d: %v", v.LinkID, err)
	}
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}
