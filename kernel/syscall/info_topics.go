package syscall

// infoTopic is the closed enumeration of object info topics. The numeric
// values are part of the syscall contract. Topics without a case in
// ObjectGetInfo are recognized but unimplemented and fail with
// ErrNotSupported; so do numbers outside the enumeration.
type infoTopic uint32

const (
	topicNone                  infoTopic = 0
	topicHandleValid           infoTopic = 1
	topicHandleBasic           infoTopic = 2
	topicProcess               infoTopic = 3
	topicProcessThreads        infoTopic = 4
	topicVMAR                  infoTopic = 7
	topicJobChildren           infoTopic = 8
	topicJobProcesses          infoTopic = 9
	topicThread                infoTopic = 10
	topicThreadExceptionReport infoTopic = 11
	topicTaskStats             infoTopic = 12
	topicProcessMaps           infoTopic = 13
	topicProcessVMOs           infoTopic = 14
	topicThreadStats           infoTopic = 15
	topicCPUStats              infoTopic = 16
	topicKmemStats             infoTopic = 17
	topicResource              infoTopic = 18
	topicHandleCount           infoTopic = 19
	topicBTI                   infoTopic = 20
	topicProcessHandleStats    infoTopic = 21
	topicSocket                infoTopic = 22
	topicVMO                   infoTopic = 23
	topicJob                   infoTopic = 24
	topicTimer                 infoTopic = 26
	topicStream                infoTopic = 27
)
