package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"sensorhub/internal/manager"
	"sensorhub/internal/sensor"
	"sensorhub/internal/sensor/stml0xx"
)

type sensorInfo struct {
	Kind   sensor.Kind     `json:"kind"`
	Handle sensor.Handle   `json:"handle"`
	Shape  sensor.Shape    `json:"shape"`
	Fields []stml0xx.Field `json:"fields"`
}

type statusRequest struct {
	Running *bool `json:"running" binding:"required"`
}

type controller struct {
	manager manager.Manager
	chans   *stml0xx.ChannelMap
	variant stml0xx.Variant
}

// ListSensors returns the compiled sensor set in handle order
func (s *controller) ListSensors(c *gin.Context) {
	reg := s.chans.Registry()
	res := make([]sensorInfo, 0, reg.Len())
	for _, k := range reg.Kinds() {
		h, _ := reg.Handle(k)
		fields, _ := s.chans.Fields(k)
		res = append(res, sensorInfo{Kind: k, Handle: h, Shape: sensor.ShapeOf(k), Fields: fields})
	}
	c.JSON(http.StatusOK, gin.H{
		"variant":  s.variant.Name,
		"features": reg.Features(),
		"max":      reg.Max(),
		"sensors":  res,
	})
}

// LatestReadings returns the latest reading of every sensor that reported
func (s *controller) LatestReadings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"readings": s.manager.LatestAll(),
	})
}

// LatestReading returns the latest reading of one sensor
func (s *controller) LatestReading(c *gin.Context) {
	k, err := sensor.ParseKind(c.Param("kind"))
	if err == nil && !s.chans.Registry().IsValid(k) {
		err = &sensor.DecodeError{Err: sensor.ErrUnknownSensor, Kind: k, Slot: -1, Msg: "not compiled in"}
	}
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"err":  err.Error(),
			"code": sensor.Code(err),
		})
		return
	}
	r, ok := s.manager.Latest(k)
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, r)
}

// History returns the readings recorded after cursor
func (s *controller) History(c *gin.Context) {
	cursor, err := strconv.ParseInt(c.DefaultQuery("cursor", "-1"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"err": err.Error(),
		})
		return
	}
	next, readings, err := s.manager.Read(cursor)
	if errors.Is(err, manager.ErrNotReady) || errors.Is(err, manager.ErrNoNewData) {
		c.JSON(http.StatusOK, gin.H{
			"cursor":   next,
			"readings": []sensor.Reading{},
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"err": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cursor":   next,
		"readings": readings,
	})
}

// GetStatus returns the status of the manager
func (s *controller) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.manager.Stats())
}

// SetStatus starts or stops the manager
func (s *controller) SetStatus(c *gin.Context) {
	req := statusRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"err": err.Error(),
		})
		return
	}
	log.Infof("SetStatus: %v", *req.Running)

	var err error
	if *req.Running {
		err = s.manager.Start()
	} else {
		err = s.manager.Stop()
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"running": s.manager.Running(),
			"err":     err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"running": s.manager.Running(),
		"err":     nil,
	})
}

// RegisterRoutes installs the v1 API on router
func RegisterRoutes(router gin.IRouter, m manager.Manager, chans *stml0xx.ChannelMap, variant stml0xx.Variant) {
	s := &controller{manager: m, chans: chans, variant: variant}
	v1 := router.Group("/api/v1")
	v1.GET("/sensors", s.ListSensors)
	v1.GET("/readings", s.LatestReadings)
	v1.GET("/readings/:kind", s.LatestReading)
	v1.GET("/history", s.History)
	v1.GET("/status", s.GetStatus)
	v1.PUT("/status", s.SetStatus)
}

// NewRouter returns a gin engine serving the v1 API.
func NewRouter(m manager.Manager, chans *stml0xx.ChannelMap, variant stml0xx.Variant, debug bool) *gin.Engine {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	if debug {
		router.Use(gin.Logger())
	}
	RegisterRoutes(router, m, chans, variant)
	return router
}
